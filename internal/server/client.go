package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spheresapp/sphere-server/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one authenticated socket. The user is resolved during the
// handshake and never changes for the connection's lifetime.
type Client struct {
	conn    *websocket.Conn
	gateway *Gateway
	log     *log.Logger
	user    types.User
	send    chan *ServerEvent
	stop    chan struct{}
}

func NewClient(user types.User, conn *websocket.Conn, gw *Gateway, l *log.Logger) *Client {
	return &Client{
		conn:    conn,
		gateway: gw,
		log:     l,
		user:    user,
		send:    make(chan *ServerEvent, 256),
		stop:    make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeFrame(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Println("error parsing event:", err)
			c.queueEvent(ErrInvalidEvent(-1))
			continue
		}

		ev.client = c
		ev.Timestamp = Now()

		if ev.Join != nil {
			c.joinRoomChannel(&ev)
			continue
		}

		// mutation events run on this goroutine, so events from one
		// socket are applied in the order they arrived
		c.gateway.handleEvent(&ev)
	}
}

func (c *Client) joinRoomChannel(ev *ClientEvent) {
	select {
	case c.gateway.subscribeChan <- &subscribeReq{client: c, roomId: ev.Join.RoomId}:
	default:
		c.log.Println("subscribeChan full")
		c.queueEvent(ErrServiceUnavailable(ev.Id))
	}
}

func (c *Client) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Println("failed to queue event for client, channel is full")
		return false
	}

	return true
}

func (c *Client) writeFrame(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

func (c *Client) cleanup() {
	// the run loop stops taking deregistrations once it has shut down
	select {
	case c.gateway.DeregisterChan <- c:
	case <-c.gateway.done:
	}
	c.stopClient()
}
