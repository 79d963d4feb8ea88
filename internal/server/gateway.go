package server

import (
	"context"
	"log"

	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/stats"
)

const (
	metricConnectedClients     = "NumConnectedClients"
	metricRoomChannels         = "NumRoomChannels"
	metricEventsProcessed      = "NumEventsProcessed"
	metricNotificationsWritten = "NumNotificationsWritten"
)

type subscribeReq struct {
	client *Client
	roomId string
}

type roomBroadcast struct {
	roomId string
	event  *ServerEvent
}

type stopReq struct {
	done chan struct{}
}

// Gateway owns the connection set and the room-channel registry. Both maps
// are only touched from the Run loop, so channel sends are the only way in.
type Gateway struct {
	log            *log.Logger
	db             database.Repository
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	rooms          map[string]map[*Client]struct{}
	RegisterChan   chan *Client
	DeregisterChan chan *Client
	subscribeChan  chan *subscribeReq
	broadcastChan  chan *roomBroadcast
	stop           chan stopReq
	done           chan struct{}
}

func NewGateway(logger *log.Logger, db database.Repository, su stats.StatsProvider) (*Gateway, error) {
	g := &Gateway{
		log:            logger,
		db:             db,
		stats:          su,
		clients:        make(map[*Client]struct{}),
		rooms:          make(map[string]map[*Client]struct{}),
		RegisterChan:   make(chan *Client),
		DeregisterChan: make(chan *Client),
		subscribeChan:  make(chan *subscribeReq, 256),
		broadcastChan:  make(chan *roomBroadcast, 256),
		stop:           make(chan stopReq),
		done:           make(chan struct{}),
	}

	su.RegisterMetric(metricConnectedClients)
	su.RegisterMetric(metricRoomChannels)
	su.RegisterMetric(metricEventsProcessed)
	su.RegisterMetric(metricNotificationsWritten)

	return g, nil
}

func (g *Gateway) Run() {
	for {
		select {
		case client := <-g.RegisterChan:
			g.log.Printf("adding connection from %q", client.user.Name)
			g.addClient(client)
		case client := <-g.DeregisterChan:
			g.log.Printf("removing connection from %q", client.user.Name)
			g.removeClient(client)
		case sub := <-g.subscribeChan:
			g.subscribe(sub.client, sub.roomId)
		case b := <-g.broadcastChan:
			g.broadcastRoom(b)
		case req := <-g.stop:
			g.log.Println("shutting down gateway")
			for client := range g.clients {
				client.stopClient()
			}
			close(g.done)
			close(req.done)
			return
		}
	}
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case g.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) RegisterClient(c *Client) {
	g.RegisterChan <- c
}

func (g *Gateway) addClient(c *Client) {
	g.clients[c] = struct{}{}
	g.stats.Incr(metricConnectedClients)
}

// removeClient drops the socket from the connection set and from every
// room-channel it joined. Nothing is broadcast: presence is not tracked.
func (g *Gateway) removeClient(c *Client) {
	if _, ok := g.clients[c]; !ok {
		return
	}

	delete(g.clients, c)
	g.stats.Decr(metricConnectedClients)

	for roomId, members := range g.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(g.rooms, roomId)
				g.stats.Decr(metricRoomChannels)
			}
		}
	}
}

// subscribe adds the socket to a room-channel. Joining is advisory and cheap:
// membership is enforced when the socket tries to mutate, not here.
func (g *Gateway) subscribe(c *Client, roomId string) {
	members, ok := g.rooms[roomId]
	if !ok {
		members = make(map[*Client]struct{})
		g.rooms[roomId] = members
		g.stats.Incr(metricRoomChannels)
	}

	members[c] = struct{}{}
	g.log.Printf("%q joined channel %q", c.user.Name, roomId)
}

func (g *Gateway) broadcastRoom(b *roomBroadcast) {
	for client := range g.rooms[b.roomId] {
		if client == b.event.SkipClient {
			continue
		}

		client.queueEvent(b.event)
	}
}

// emitToRoom hands the canonical payload to the run loop for fan-out to every
// socket currently subscribed to the room-channel.
func (g *Gateway) emitToRoom(roomId string, ev *ServerEvent) {
	g.broadcastChan <- &roomBroadcast{roomId: roomId, event: ev}
}
