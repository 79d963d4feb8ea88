package server

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/types"
)

// handleEvent applies one client-issued mutation. It runs on the issuing
// connection's read goroutine, so a slow database call never stalls other
// sockets. Room membership is re-checked here for every mutation: joining a
// channel is advisory and membership can change after join.
func (g *Gateway) handleEvent(ev *ClientEvent) {
	g.stats.Incr(metricEventsProcessed)

	switch {
	case ev.SendMessage != nil:
		g.handleSendMessage(ev)
	case ev.CreateTodo != nil:
		g.handleCreateTodo(ev)
	case ev.ToggleTodo != nil:
		g.handleToggleTodo(ev)
	case ev.DeleteTodo != nil:
		g.handleDeleteTodo(ev)
	case ev.CreatePoll != nil:
		g.handleCreatePoll(ev)
	case ev.VoteOnPoll != nil:
		g.handleVoteOnPoll(ev)
	case ev.DeletePoll != nil:
		g.handleDeletePoll(ev)
	case ev.FoodShare != nil:
		g.handleFoodShare(ev)
	case ev.TravelShare != nil:
		g.handleTravelShare(ev)
	default:
		ev.client.queueEvent(ErrInvalidEvent(ev.Id))
	}
}

// memberRoom resolves the room and rejects the event when the socket's user
// is not currently a member. On failure the caller gets a Response event and
// no broadcast happens.
func (g *Gateway) memberRoom(ev *ClientEvent, roomExternalId string) (database.Room, bool) {
	c := ev.client
	room, err := g.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrRoomNotFound(ev.Id))
		} else {
			g.log.Println("GetRoomByExternalId:", err)
			c.queueEvent(ErrInternalError(ev.Id))
		}
		return database.Room{}, false
	}

	if !g.requireMember(ev, room.Id) {
		return database.Room{}, false
	}

	return room, true
}

func (g *Gateway) requireMember(ev *ClientEvent, roomId int) bool {
	c := ev.client
	ok, err := g.db.IsMember(roomId, c.user.Id)
	if err != nil {
		g.log.Println("IsMember:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return false
	}
	if !ok {
		g.log.Printf("rejected event from %q: not a member of room %d", c.user.Name, roomId)
		c.queueEvent(ErrUnauthorized(ev.Id))
		return false
	}

	return true
}

func (g *Gateway) handleSendMessage(ev *ClientEvent) {
	c := ev.client
	if strings.TrimSpace(ev.SendMessage.Text) == "" {
		c.queueEvent(ErrValidation(ev.Id, "message text is required"))
		return
	}

	room, ok := g.memberRoom(ev, ev.SendMessage.RoomId)
	if !ok {
		return
	}

	msg, err := g.db.CreateMessage(database.CreateMessageParams{
		RoomId:   room.Id,
		SenderId: c.user.Id,
		Text:     ev.SendMessage.Text,
	})
	if err != nil {
		g.log.Println("CreateMessage:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	wire := ToMessage(msg)
	g.emitToRoom(room.ExternalId, &ServerEvent{
		BaseEvent:  BaseEvent{Id: ev.Id, Timestamp: msg.CreatedAt},
		NewMessage: &wire,
	})
}

func (g *Gateway) handleCreateTodo(ev *ClientEvent) {
	c := ev.client
	if strings.TrimSpace(ev.CreateTodo.Text) == "" {
		c.queueEvent(ErrValidation(ev.Id, "todo text is required"))
		return
	}

	room, ok := g.memberRoom(ev, ev.CreateTodo.RoomId)
	if !ok {
		return
	}

	todo, err := g.db.CreateTodo(database.CreateTodoParams{
		RoomId:      room.Id,
		Text:        ev.CreateTodo.Text,
		CreatedById: c.user.Id,
	})
	if err != nil {
		g.log.Println("CreateTodo:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	wire := ToTodo(todo)
	g.emitToRoom(room.ExternalId, &ServerEvent{
		BaseEvent: BaseEvent{Id: ev.Id, Timestamp: todo.CreatedAt},
		NewTodo:   &wire,
	})
}

func (g *Gateway) handleToggleTodo(ev *ClientEvent) {
	c := ev.client
	todo, err := g.db.GetTodoByExternalId(ev.ToggleTodo.TodoId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// toggling a missing todo is a documented soft-fail
			g.log.Printf("toggleTodo: todo %q not found", ev.ToggleTodo.TodoId)
			return
		}
		g.log.Println("GetTodoByExternalId:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	if !g.requireMember(ev, todo.RoomId) {
		return
	}

	updated, err := g.db.UpdateTodoCompletion(todo.Id, !todo.IsCompleted, c.user.Id)
	if err != nil {
		g.log.Println("UpdateTodoCompletion:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	wire := ToTodo(updated)
	g.emitToRoom(todo.RoomExternal, &ServerEvent{
		BaseEvent:   BaseEvent{Id: ev.Id, Timestamp: updated.UpdatedAt},
		TodoUpdated: &wire,
	})
}

func (g *Gateway) handleDeleteTodo(ev *ClientEvent) {
	c := ev.client
	todo, err := g.db.GetTodoByExternalId(ev.DeleteTodo.TodoId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			g.log.Printf("deleteTodo: todo %q not found", ev.DeleteTodo.TodoId)
			return
		}
		g.log.Println("GetTodoByExternalId:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	if !g.requireMember(ev, todo.RoomId) {
		return
	}

	// only the creator may delete; the room owner cannot override
	if todo.CreatedById != c.user.Id {
		g.log.Printf("deleteTodo: %q is not the creator of todo %q", c.user.Name, todo.ExternalId)
		return
	}

	if err := g.db.DeleteTodo(todo.Id); err != nil {
		g.log.Println("DeleteTodo:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	g.emitToRoom(todo.RoomExternal, &ServerEvent{
		BaseEvent:   BaseEvent{Id: ev.Id, Timestamp: Now()},
		TodoDeleted: &TodoDeleted{TodoId: todo.ExternalId},
	})
}

func (g *Gateway) handleCreatePoll(ev *ClientEvent) {
	c := ev.client
	if strings.TrimSpace(ev.CreatePoll.Question) == "" {
		c.queueEvent(ErrValidation(ev.Id, "poll question is required"))
		return
	}
	if len(ev.CreatePoll.Options) < 2 {
		c.queueEvent(ErrValidation(ev.Id, "a poll needs at least two options"))
		return
	}
	for _, opt := range ev.CreatePoll.Options {
		if strings.TrimSpace(opt) == "" {
			c.queueEvent(ErrValidation(ev.Id, "poll options cannot be empty"))
			return
		}
	}

	room, ok := g.memberRoom(ev, ev.CreatePoll.RoomId)
	if !ok {
		return
	}

	poll, err := g.db.CreatePoll(database.CreatePollParams{
		RoomId:      room.Id,
		Question:    ev.CreatePoll.Question,
		CreatedById: c.user.Id,
		Options:     ev.CreatePoll.Options,
	})
	if err != nil {
		g.log.Println("CreatePoll:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	wire := ToPoll(poll)
	g.emitToRoom(room.ExternalId, &ServerEvent{
		BaseEvent: BaseEvent{Id: ev.Id, Timestamp: poll.CreatedAt},
		NewPoll:   &wire,
	})
}

func (g *Gateway) handleVoteOnPoll(ev *ClientEvent) {
	c := ev.client
	poll, err := g.db.GetPollByExternalId(ev.VoteOnPoll.PollId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			g.log.Printf("voteOnPoll: poll %q not found", ev.VoteOnPoll.PollId)
			return
		}
		g.log.Println("GetPollByExternalId:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	if !g.requireMember(ev, poll.RoomId) {
		return
	}

	current, err := g.db.GetPollWithVotes(poll.Id)
	if err != nil {
		g.log.Println("GetPollWithVotes:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	optionId := 0
	for _, opt := range current.Options {
		if opt.ExternalId == ev.VoteOnPoll.OptionId {
			optionId = opt.Id
			break
		}
	}
	if optionId == 0 {
		g.log.Printf("voteOnPoll: option %q not found on poll %q", ev.VoteOnPoll.OptionId, poll.ExternalId)
		return
	}

	// the store replaces any previous vote by this user within the poll,
	// so a vote is exclusive across the poll's options
	if err := g.db.SetPollVote(poll.Id, optionId, c.user.Id); err != nil {
		g.log.Println("SetPollVote:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	updated, err := g.db.GetPollWithVotes(poll.Id)
	if err != nil {
		g.log.Println("GetPollWithVotes:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	wire := ToPoll(*updated)
	g.emitToRoom(poll.RoomExternal, &ServerEvent{
		BaseEvent:   BaseEvent{Id: ev.Id, Timestamp: Now()},
		PollUpdated: &wire,
	})
}

func (g *Gateway) handleDeletePoll(ev *ClientEvent) {
	c := ev.client
	poll, err := g.db.GetPollByExternalId(ev.DeletePoll.PollId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			g.log.Printf("deletePoll: poll %q not found", ev.DeletePoll.PollId)
			return
		}
		g.log.Println("GetPollByExternalId:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	if !g.requireMember(ev, poll.RoomId) {
		return
	}

	if poll.CreatedById != c.user.Id {
		owner, err := g.db.IsOwner(poll.RoomId, c.user.Id)
		if err != nil {
			g.log.Println("IsOwner:", err)
			return
		}
		if !owner {
			g.log.Printf("deletePoll: %q is neither creator nor owner of poll %q", c.user.Name, poll.ExternalId)
			return
		}
	}

	if err := g.db.DeletePoll(poll.Id); err != nil {
		g.log.Println("DeletePoll:", err)
		c.queueEvent(ErrInternalError(ev.Id))
		return
	}

	g.emitToRoom(poll.RoomExternal, &ServerEvent{
		BaseEvent:   BaseEvent{Id: ev.Id, Timestamp: Now()},
		PollDeleted: &PollDeleted{PollId: poll.ExternalId},
	})
}

func (g *Gateway) handleFoodShare(ev *ClientEvent) {
	room, ok := g.memberRoom(ev, ev.FoodShare.RoomId)
	if !ok {
		return
	}

	c := ev.client
	notice := types.ShareNotice{
		Type:      types.ShareTypeFood,
		From:      c.user.Name,
		Vendor:    ev.FoodShare.Vendor,
		Message:   ev.FoodShare.Message,
		Timestamp: ev.Timestamp,
	}

	// the sender already knows what they sent; everyone else gets the toast
	g.emitToRoom(room.ExternalId, &ServerEvent{
		BaseEvent:    BaseEvent{Id: ev.Id, Timestamp: ev.Timestamp},
		NewFoodShare: &notice,
		SkipClient:   c,
	})

	summary := fmt.Sprintf("Food share: %s is ordering from %s (%q)", c.user.Name, ev.FoodShare.Vendor, ev.FoodShare.Message)
	g.fanoutNotifications(room.Id, c.user.Id, summary)
}

func (g *Gateway) handleTravelShare(ev *ClientEvent) {
	room, ok := g.memberRoom(ev, ev.TravelShare.RoomId)
	if !ok {
		return
	}

	c := ev.client
	notice := types.ShareNotice{
		Type:         types.ShareTypeTravel,
		From:         c.user.Name,
		FromLocation: ev.TravelShare.FromLocation,
		ToLocation:   ev.TravelShare.ToLocation,
		Timestamp:    ev.Timestamp,
	}

	g.emitToRoom(room.ExternalId, &ServerEvent{
		BaseEvent:      BaseEvent{Id: ev.Id, Timestamp: ev.Timestamp},
		NewTravelShare: &notice,
		SkipClient:     c,
	})

	summary := fmt.Sprintf("Travel share: %s is going from %s to %s", c.user.Name, ev.TravelShare.FromLocation, ev.TravelShare.ToLocation)
	g.fanoutNotifications(room.Id, c.user.Id, summary)
}

// fanoutNotifications writes one durable Notification row per room member
// other than the sender, for members not currently connected. It is best
// effort and deliberately not transactional with the live broadcast.
func (g *Gateway) fanoutNotifications(roomId, senderId int, message string) {
	members, err := g.db.GetMembersByRoomId(roomId)
	if err != nil {
		g.log.Println("GetMembersByRoomId:", err)
		return
	}

	for _, member := range members {
		if member.Id == senderId {
			continue
		}

		if _, err := g.db.CreateNotification(member.Id, message); err != nil {
			g.log.Printf("CreateNotification for %d: %v", member.Id, err)
			continue
		}
		g.stats.Incr(metricNotificationsWritten)
	}
}
