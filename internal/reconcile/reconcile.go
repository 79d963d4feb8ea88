// Package reconcile maintains a client's optimistic view of one room and
// folds canonical gateway broadcasts into it. A client applies its own
// mutation locally right away, tags the outgoing event with a local event id,
// and later replaces the optimistic entry when the broadcast carrying the
// same id arrives. An error reply with that id rolls the entry back instead.
//
// The only transport knowledge here is the decoded event envelope; feeding
// events from a websocket, a replay log, or a test is all the same.
package reconcile

import (
	"fmt"

	"github.com/spheresapp/sphere-server/internal/server"
	"github.com/spheresapp/sphere-server/internal/types"
)

type pendingKind int

const (
	pendingMessage pendingKind = iota
	pendingTodo
	pendingPoll
)

type pendingOp struct {
	kind    pendingKind
	localId string
}

// RoomState is one room's reconciled view. It is not safe for concurrent
// use; a client owns one per room on its event loop goroutine.
type RoomState struct {
	roomId string
	self   types.User

	Messages []types.Message
	Todos    []types.Todo
	Polls    []types.Poll
	Shares   []types.ShareNotice

	pending map[int]pendingOp
}

func NewRoomState(roomId string, self types.User) *RoomState {
	return &RoomState{
		roomId:  roomId,
		self:    self,
		pending: make(map[int]pendingOp),
	}
}

// Seed loads the canonical history fetched over HTTP. Any optimistic state
// is discarded; seeding happens before the client starts mutating.
func (rs *RoomState) Seed(messages []types.Message, todos []types.Todo, polls []types.Poll) {
	rs.Messages = messages
	rs.Todos = todos
	rs.Polls = polls
	rs.pending = make(map[int]pendingOp)
}

func localId(eventId int) string {
	return fmt.Sprintf("local-%d", eventId)
}

// SendMessage records an optimistic message under a placeholder id until the
// canonical broadcast for eventId replaces it.
func (rs *RoomState) SendMessage(eventId int, text string) {
	rs.Messages = append(rs.Messages, types.Message{
		Id:     localId(eventId),
		RoomId: rs.roomId,
		Sender: rs.self,
		Text:   text,
	})
	rs.pending[eventId] = pendingOp{kind: pendingMessage, localId: localId(eventId)}
}

func (rs *RoomState) AddTodo(eventId int, text string) {
	rs.Todos = append(rs.Todos, types.Todo{
		Id:        localId(eventId),
		RoomId:    rs.roomId,
		Text:      text,
		CreatedBy: rs.self,
	})
	rs.pending[eventId] = pendingOp{kind: pendingTodo, localId: localId(eventId)}
}

// ToggleTodo flips a todo in place. There is no placeholder entity to roll
// back; the canonical TodoUpdated broadcast simply overwrites the guess.
func (rs *RoomState) ToggleTodo(todoId string) {
	for i := range rs.Todos {
		if rs.Todos[i].Id != todoId {
			continue
		}

		rs.Todos[i].IsCompleted = !rs.Todos[i].IsCompleted
		if rs.Todos[i].IsCompleted {
			self := rs.self
			rs.Todos[i].CompletedBy = &self
		} else {
			rs.Todos[i].CompletedBy = nil
		}
		return
	}
}

func (rs *RoomState) AddPoll(eventId int, question string, options []string) {
	poll := types.Poll{
		Id:        localId(eventId),
		RoomId:    rs.roomId,
		Question:  question,
		CreatedBy: rs.self,
	}
	for i, opt := range options {
		poll.Options = append(poll.Options, types.PollOption{
			Id:    fmt.Sprintf("%s-%d", localId(eventId), i),
			Text:  opt,
			Votes: []types.User{},
		})
	}

	rs.Polls = append(rs.Polls, poll)
	rs.pending[eventId] = pendingOp{kind: pendingPoll, localId: localId(eventId)}
}

// Vote applies the at-most-one-vote rule locally. The gateway applies the
// identical rule, so the later PollUpdated broadcast agrees with this guess
// unless someone else voted in between.
func (rs *RoomState) Vote(pollId, optionId string) bool {
	for i := range rs.Polls {
		if rs.Polls[i].Id != pollId {
			continue
		}

		options, ok := types.ApplyVote(rs.Polls[i].Options, rs.self, optionId)
		if ok {
			rs.Polls[i].Options = options
		}
		return ok
	}

	return false
}

// Apply folds one gateway event into the view. Events for other rooms are
// ignored, so a client may feed its single socket stream to every RoomState
// it holds.
func (rs *RoomState) Apply(ev *server.ServerEvent) {
	switch {
	case ev.Response != nil:
		if ev.Response.ResponseCode >= 400 {
			rs.rollback(ev.Id)
		}
	case ev.NewMessage != nil:
		if ev.NewMessage.RoomId != rs.roomId {
			return
		}
		rs.settleMessage(ev.Id, *ev.NewMessage)
	case ev.NewTodo != nil:
		if ev.NewTodo.RoomId != rs.roomId {
			return
		}
		rs.settleTodo(ev.Id, *ev.NewTodo)
	case ev.TodoUpdated != nil:
		if ev.TodoUpdated.RoomId != rs.roomId {
			return
		}
		rs.upsertTodo(*ev.TodoUpdated)
	case ev.TodoDeleted != nil:
		rs.removeTodo(ev.TodoDeleted.TodoId)
	case ev.NewPoll != nil:
		if ev.NewPoll.RoomId != rs.roomId {
			return
		}
		rs.settlePoll(ev.Id, *ev.NewPoll)
	case ev.PollUpdated != nil:
		if ev.PollUpdated.RoomId != rs.roomId {
			return
		}
		rs.upsertPoll(*ev.PollUpdated)
	case ev.PollDeleted != nil:
		rs.removePoll(ev.PollDeleted.PollId)
	case ev.NewFoodShare != nil:
		rs.Shares = append(rs.Shares, *ev.NewFoodShare)
	case ev.NewTravelShare != nil:
		rs.Shares = append(rs.Shares, *ev.NewTravelShare)
	}
}

func (rs *RoomState) rollback(eventId int) {
	op, ok := rs.pending[eventId]
	if !ok {
		return
	}
	delete(rs.pending, eventId)

	switch op.kind {
	case pendingMessage:
		rs.removeMessage(op.localId)
	case pendingTodo:
		rs.removeTodo(op.localId)
	case pendingPoll:
		rs.removePoll(op.localId)
	}
}

func (rs *RoomState) settleMessage(eventId int, msg types.Message) {
	if op, ok := rs.pending[eventId]; ok && op.kind == pendingMessage {
		delete(rs.pending, eventId)
		for i := range rs.Messages {
			if rs.Messages[i].Id == op.localId {
				rs.Messages[i] = msg
				return
			}
		}
	}

	// a broadcast from someone else, or our placeholder is already gone
	for i := range rs.Messages {
		if rs.Messages[i].Id == msg.Id {
			rs.Messages[i] = msg
			return
		}
	}
	rs.Messages = append(rs.Messages, msg)
}

func (rs *RoomState) settleTodo(eventId int, todo types.Todo) {
	if op, ok := rs.pending[eventId]; ok && op.kind == pendingTodo {
		delete(rs.pending, eventId)
		for i := range rs.Todos {
			if rs.Todos[i].Id == op.localId {
				rs.Todos[i] = todo
				return
			}
		}
	}

	rs.upsertTodo(todo)
}

func (rs *RoomState) settlePoll(eventId int, poll types.Poll) {
	if op, ok := rs.pending[eventId]; ok && op.kind == pendingPoll {
		delete(rs.pending, eventId)
		for i := range rs.Polls {
			if rs.Polls[i].Id == op.localId {
				rs.Polls[i] = poll
				return
			}
		}
	}

	rs.upsertPoll(poll)
}

func (rs *RoomState) upsertTodo(todo types.Todo) {
	for i := range rs.Todos {
		if rs.Todos[i].Id == todo.Id {
			rs.Todos[i] = todo
			return
		}
	}
	rs.Todos = append(rs.Todos, todo)
}

func (rs *RoomState) upsertPoll(poll types.Poll) {
	for i := range rs.Polls {
		if rs.Polls[i].Id == poll.Id {
			rs.Polls[i] = poll
			return
		}
	}
	rs.Polls = append(rs.Polls, poll)
}

func (rs *RoomState) removeMessage(id string) {
	for i := range rs.Messages {
		if rs.Messages[i].Id == id {
			rs.Messages = append(rs.Messages[:i], rs.Messages[i+1:]...)
			return
		}
	}
}

func (rs *RoomState) removeTodo(id string) {
	for i := range rs.Todos {
		if rs.Todos[i].Id == id {
			rs.Todos = append(rs.Todos[:i], rs.Todos[i+1:]...)
			return
		}
	}
}

func (rs *RoomState) removePoll(id string) {
	for i := range rs.Polls {
		if rs.Polls[i].Id == id {
			rs.Polls = append(rs.Polls[:i], rs.Polls[i+1:]...)
			return
		}
	}
}
