package reconcile

import (
	"testing"

	"github.com/spheresapp/sphere-server/internal/server"
	"github.com/spheresapp/sphere-server/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = types.User{Id: 1, Name: "alice"}
	bob   = types.User{Id: 2, Name: "bob"}
)

func TestOptimisticMessageConverges(t *testing.T) {
	rs := NewRoomState("room-a", alice)

	rs.SendMessage(1, "who wants pizza")
	require.Len(t, rs.Messages, 1)
	assert.Equal(t, "local-1", rs.Messages[0].Id)

	rs.Apply(&server.ServerEvent{
		BaseEvent: server.BaseEvent{Id: 1, Timestamp: server.Now()},
		NewMessage: &types.Message{
			Id:     "m-100",
			RoomId: "room-a",
			Sender: alice,
			Text:   "who wants pizza",
		},
	})

	require.Len(t, rs.Messages, 1, "the placeholder is replaced, not duplicated")
	assert.Equal(t, "m-100", rs.Messages[0].Id)
}

func TestRejectedMessageRollsBack(t *testing.T) {
	rs := NewRoomState("room-a", alice)

	rs.SendMessage(1, "who wants pizza")
	rs.Apply(&server.ServerEvent{
		BaseEvent: server.BaseEvent{Id: 1},
		Response:  &server.Response{ResponseCode: 401, Error: "not a member of this room"},
	})

	assert.Empty(t, rs.Messages)
}

func TestForeignEventsAppend(t *testing.T) {
	rs := NewRoomState("room-a", alice)

	rs.Apply(&server.ServerEvent{
		BaseEvent:  server.BaseEvent{Id: 9},
		NewMessage: &types.Message{Id: "m-1", RoomId: "room-a", Sender: bob, Text: "hello"},
	})
	rs.Apply(&server.ServerEvent{
		BaseEvent:  server.BaseEvent{Id: 10},
		NewMessage: &types.Message{Id: "m-2", RoomId: "room-b", Sender: bob, Text: "wrong room"},
	})

	require.Len(t, rs.Messages, 1, "other rooms' events are ignored")
	assert.Equal(t, "m-1", rs.Messages[0].Id)
}

func TestDuplicateBroadcastIsIdempotent(t *testing.T) {
	rs := NewRoomState("room-a", alice)

	ev := &server.ServerEvent{
		BaseEvent:  server.BaseEvent{Id: 9},
		NewMessage: &types.Message{Id: "m-1", RoomId: "room-a", Sender: bob, Text: "hello"},
	}
	rs.Apply(ev)
	rs.Apply(ev)

	assert.Len(t, rs.Messages, 1)
}

func TestTodoLifecycle(t *testing.T) {
	rs := NewRoomState("room-a", alice)
	rs.Seed(nil, []types.Todo{
		{Id: "t-1", RoomId: "room-a", Text: "buy milk", CreatedBy: bob},
	}, nil)

	// optimistic toggle guesses the completer
	rs.ToggleTodo("t-1")
	require.True(t, rs.Todos[0].IsCompleted)
	require.NotNil(t, rs.Todos[0].CompletedBy)
	assert.Equal(t, alice.Id, rs.Todos[0].CompletedBy.Id)

	// canonical broadcast confirms it
	rs.Apply(&server.ServerEvent{
		BaseEvent: server.BaseEvent{Id: 3},
		TodoUpdated: &types.Todo{
			Id: "t-1", RoomId: "room-a", Text: "buy milk",
			IsCompleted: true, CreatedBy: bob, CompletedBy: &alice,
		},
	})
	require.Len(t, rs.Todos, 1)
	assert.True(t, rs.Todos[0].IsCompleted)

	rs.Apply(&server.ServerEvent{
		BaseEvent:   server.BaseEvent{Id: 4},
		TodoDeleted: &server.TodoDeleted{TodoId: "t-1"},
	})
	assert.Empty(t, rs.Todos)
}

func TestCanonicalToggleOverridesGuess(t *testing.T) {
	rs := NewRoomState("room-a", alice)
	rs.Seed(nil, []types.Todo{
		{Id: "t-1", RoomId: "room-a", Text: "buy milk", CreatedBy: bob},
	}, nil)

	// alice and bob raced; bob's toggle won on the server
	rs.ToggleTodo("t-1")
	rs.Apply(&server.ServerEvent{
		BaseEvent: server.BaseEvent{Id: 5},
		TodoUpdated: &types.Todo{
			Id: "t-1", RoomId: "room-a", Text: "buy milk",
			IsCompleted: true, CreatedBy: bob, CompletedBy: &bob,
		},
	})

	require.NotNil(t, rs.Todos[0].CompletedBy)
	assert.Equal(t, bob.Id, rs.Todos[0].CompletedBy.Id, "the broadcast is canonical")
}

func TestVoteConvergesWithBroadcast(t *testing.T) {
	seedPoll := types.Poll{
		Id:       "p-1",
		RoomId:   "room-a",
		Question: "dinner?",
		Options: []types.PollOption{
			{Id: "o-1", Text: "Pizza", Votes: []types.User{alice}},
			{Id: "o-2", Text: "Sushi", Votes: []types.User{}},
		},
	}

	rs := NewRoomState("room-a", alice)
	rs.Seed(nil, nil, []types.Poll{seedPoll})

	// alice switches her vote from Pizza to Sushi
	require.True(t, rs.Vote("p-1", "o-2"))
	assert.Empty(t, rs.Polls[0].Options[0].Votes)
	require.Len(t, rs.Polls[0].Options[1].Votes, 1)

	// the gateway ran the same rule and broadcasts the same result
	canonical, ok := types.ApplyVote(seedPoll.Options, alice, "o-2")
	require.True(t, ok)
	after := seedPoll
	after.Options = canonical

	rs.Apply(&server.ServerEvent{
		BaseEvent:   server.BaseEvent{Id: 6},
		PollUpdated: &after,
	})

	assert.Equal(t, canonical, rs.Polls[0].Options, "local guess and canonical state agree")
}

func TestVoteOnUnknownOption(t *testing.T) {
	rs := NewRoomState("room-a", alice)
	rs.Seed(nil, nil, []types.Poll{{
		Id:      "p-1",
		RoomId:  "room-a",
		Options: []types.PollOption{{Id: "o-1", Text: "Pizza", Votes: []types.User{}}},
	}})

	assert.False(t, rs.Vote("p-1", "o-99"))
	assert.False(t, rs.Vote("p-99", "o-1"))
	assert.Empty(t, rs.Polls[0].Options[0].Votes)
}

func TestOptimisticPollConverges(t *testing.T) {
	rs := NewRoomState("room-a", alice)

	rs.AddPoll(7, "dinner?", []string{"Pizza", "Sushi"})
	require.Len(t, rs.Polls, 1)
	assert.Equal(t, "local-7", rs.Polls[0].Id)

	rs.Apply(&server.ServerEvent{
		BaseEvent: server.BaseEvent{Id: 7},
		NewPoll: &types.Poll{
			Id:       "p-300",
			RoomId:   "room-a",
			Question: "dinner?",
			Options: []types.PollOption{
				{Id: "o-301", Text: "Pizza", Votes: []types.User{}},
				{Id: "o-302", Text: "Sushi", Votes: []types.User{}},
			},
		},
	})

	require.Len(t, rs.Polls, 1)
	assert.Equal(t, "p-300", rs.Polls[0].Id)

	rs.Apply(&server.ServerEvent{
		BaseEvent:   server.BaseEvent{Id: 8},
		PollDeleted: &server.PollDeleted{PollId: "p-300"},
	})
	assert.Empty(t, rs.Polls)
}

func TestSharesAccumulate(t *testing.T) {
	rs := NewRoomState("room-a", alice)

	rs.Apply(&server.ServerEvent{
		BaseEvent:    server.BaseEvent{Id: 11},
		NewFoodShare: &types.ShareNotice{Type: types.ShareTypeFood, From: "bob", Vendor: "Luigi's"},
	})
	rs.Apply(&server.ServerEvent{
		BaseEvent:      server.BaseEvent{Id: 12},
		NewTravelShare: &types.ShareNotice{Type: types.ShareTypeTravel, From: "bob", FromLocation: "Berlin", ToLocation: "Prague"},
	})

	require.Len(t, rs.Shares, 2)
	assert.Equal(t, types.ShareTypeFood, rs.Shares[0].Type)
	assert.Equal(t, types.ShareTypeTravel, rs.Shares[1].Type)
}
