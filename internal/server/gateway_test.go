package server

import (
	"context"
	"testing"
	"time"

	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/stats"
	"github.com/spheresapp/sphere-server/internal/testutil"
	"github.com/spheresapp/sphere-server/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type gatewayFixture struct {
	g  *Gateway
	db *database.MockRepository
	su *stats.MockStatsUpdater
}

func newTestGateway(t *testing.T) *gatewayFixture {
	db := &database.MockRepository{}
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return(nil).Times(4)
	su.On("Incr", metricConnectedClients).Return(nil)
	su.On("Incr", metricRoomChannels).Return(nil)
	su.On("Incr", metricEventsProcessed).Return(nil)
	su.On("Decr", metricConnectedClients).Return(nil).Maybe()
	su.On("Decr", metricRoomChannels).Return(nil).Maybe()

	g, err := NewGateway(testutil.TestLogger(t), db, su)
	require.NoError(t, err)

	return &gatewayFixture{g: g, db: db, su: su}
}

// connect wires a socketless client into the gateway, subscribed to the
// given room channels.
func (f *gatewayFixture) connect(user types.User, rooms ...string) *Client {
	c := NewClient(user, nil, f.g, f.g.log)
	f.g.addClient(c)
	for _, room := range rooms {
		f.g.subscribe(c, room)
	}
	return c
}

// flush drains the broadcast channel the way the run loop would.
func (f *gatewayFixture) flush() {
	for {
		select {
		case b := <-f.g.broadcastChan:
			f.g.broadcastRoom(b)
		default:
			return
		}
	}
}

// received pops the next queued event for a client, or nil if none.
func received(c *Client) *ServerEvent {
	select {
	case ev := <-c.send:
		return ev
	default:
		return nil
	}
}

func TestGatewayRegistersMetrics(t *testing.T) {
	f := newTestGateway(t)
	f.su.AssertNumberOfCalls(t, "RegisterMetric", 4)
	assert.NotNil(t, f.g)
}

func TestAddRemoveClient(t *testing.T) {
	f := newTestGateway(t)

	c := f.connect(types.User{Id: 1, Name: "alice"}, "room-a")
	assert.Len(t, f.g.clients, 1)
	assert.Len(t, f.g.rooms["room-a"], 1)

	f.g.removeClient(c)
	assert.Empty(t, f.g.clients)
	assert.NotContains(t, f.g.rooms, "room-a", "empty channels are dropped")

	// removing an unknown client is a no-op
	f.g.removeClient(c)
	assert.Empty(t, f.g.clients)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	f := newTestGateway(t)

	c := f.connect(types.User{Id: 1, Name: "alice"}, "room-a", "room-a")
	assert.Len(t, f.g.rooms["room-a"], 1)

	f.g.broadcastRoom(&roomBroadcast{roomId: "room-a", event: NoErrAccepted(1)})
	assert.NotNil(t, received(c))
	assert.Nil(t, received(c), "one subscription, one delivery")
}

func TestBroadcastRoutesByChannel(t *testing.T) {
	f := newTestGateway(t)

	alice := f.connect(types.User{Id: 1, Name: "alice"}, "room-a")
	bob := f.connect(types.User{Id: 2, Name: "bob"}, "room-a")
	carol := f.connect(types.User{Id: 3, Name: "carol"}, "room-b")

	ev := &ServerEvent{
		BaseEvent:  BaseEvent{Id: 7, Timestamp: Now()},
		NewMessage: &types.Message{Id: "m1", RoomId: "room-a", Text: "hi"},
	}
	f.g.broadcastRoom(&roomBroadcast{roomId: "room-a", event: ev})

	assert.Equal(t, ev, received(alice))
	assert.Equal(t, ev, received(bob))
	assert.Nil(t, received(carol), "other channels must not see the event")
}

func TestBroadcastSkipsSender(t *testing.T) {
	f := newTestGateway(t)

	alice := f.connect(types.User{Id: 1, Name: "alice"}, "room-a")
	bob := f.connect(types.User{Id: 2, Name: "bob"}, "room-a")

	ev := &ServerEvent{
		BaseEvent:    BaseEvent{Id: 3, Timestamp: Now()},
		NewFoodShare: &types.ShareNotice{Type: types.ShareTypeFood, From: "alice"},
		SkipClient:   alice,
	}
	f.g.broadcastRoom(&roomBroadcast{roomId: "room-a", event: ev})

	assert.Nil(t, received(alice))
	assert.Equal(t, ev, received(bob))
}

func TestClientInMultipleChannels(t *testing.T) {
	f := newTestGateway(t)

	alice := f.connect(types.User{Id: 1, Name: "alice"}, "room-a", "room-b")

	f.g.broadcastRoom(&roomBroadcast{roomId: "room-a", event: NoErrAccepted(1)})
	f.g.broadcastRoom(&roomBroadcast{roomId: "room-b", event: NoErrAccepted(2)})

	assert.NotNil(t, received(alice))
	assert.NotNil(t, received(alice))

	f.g.removeClient(alice)
	assert.Empty(t, f.g.rooms)
}

func TestShutdownStopsRunLoop(t *testing.T) {
	f := newTestGateway(t)

	done := make(chan struct{})
	go func() {
		f.g.Run()
		close(done)
	}()

	c := NewClient(types.User{Id: 1, Name: "alice"}, nil, f.g, f.g.log)
	f.g.RegisterClient(c)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.g.Shutdown(ctx))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not exit")
	}

	select {
	case <-c.stop:
	case <-time.After(time.Second):
		t.Fatal("client was not stopped")
	}
}

func TestCleanupReturnsAfterShutdown(t *testing.T) {
	f := newTestGateway(t)

	go f.g.Run()

	c := NewClient(types.User{Id: 1, Name: "alice"}, nil, f.g, f.g.log)
	f.g.RegisterClient(c)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.g.Shutdown(ctx))

	finished := make(chan struct{})
	go func() {
		c.cleanup()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("cleanup blocked after shutdown")
	}
}

func TestShutdownTimesOutWhenNotRunning(t *testing.T) {
	f := newTestGateway(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.g.Shutdown(ctx), context.DeadlineExceeded)
}
