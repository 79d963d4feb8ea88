package server

import (
	"net/http"
	"time"

	"github.com/spheresapp/sphere-server/internal/types"
)

type BaseEvent struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientEvent is the envelope for every client-issued event. Exactly one of
// the pointer fields is set.
type ClientEvent struct {
	BaseEvent
	Join        *JoinRoom           `json:"join_room,omitempty"`
	SendMessage *SendMessage        `json:"send_message,omitempty"`
	CreateTodo  *CreateTodo         `json:"create_todo,omitempty"`
	ToggleTodo  *ToggleTodo         `json:"toggle_todo,omitempty"`
	DeleteTodo  *DeleteTodo         `json:"delete_todo,omitempty"`
	CreatePoll  *CreatePoll         `json:"create_poll,omitempty"`
	VoteOnPoll  *VoteOnPoll         `json:"vote_on_poll,omitempty"`
	DeletePoll  *DeletePoll         `json:"delete_poll,omitempty"`
	FoodShare   *FoodShareRequest   `json:"food_share_request,omitempty"`
	TravelShare *TravelShareRequest `json:"travel_share_request,omitempty"`
	client      *Client
}

type JoinRoom struct {
	RoomId string `json:"room_id"`
}

type SendMessage struct {
	RoomId string `json:"room_id"`
	Text   string `json:"text"`
}

type CreateTodo struct {
	RoomId string `json:"room_id"`
	Text   string `json:"text"`
}

type ToggleTodo struct {
	TodoId string `json:"todo_id"`
}

type DeleteTodo struct {
	TodoId string `json:"todo_id"`
}

type CreatePoll struct {
	RoomId   string   `json:"room_id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type VoteOnPoll struct {
	PollId   string `json:"poll_id"`
	OptionId string `json:"option_id"`
}

type DeletePoll struct {
	PollId string `json:"poll_id"`
}

type FoodShareRequest struct {
	RoomId  string `json:"room_id"`
	Vendor  string `json:"vendor"`
	Message string `json:"message"`
}

type TravelShareRequest struct {
	RoomId       string `json:"room_id"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
}

// ServerEvent is the envelope for everything the gateway sends. Broadcast
// payloads carry the canonical, identity-resolved record; Response is a
// direct reply to the originating socket only.
type ServerEvent struct {
	BaseEvent
	Response       *Response          `json:"response,omitempty"`
	NewMessage     *types.Message     `json:"new_message,omitempty"`
	NewTodo        *types.Todo        `json:"new_todo,omitempty"`
	TodoUpdated    *types.Todo        `json:"todo_updated,omitempty"`
	TodoDeleted    *TodoDeleted       `json:"todo_deleted,omitempty"`
	NewPoll        *types.Poll        `json:"new_poll,omitempty"`
	PollUpdated    *types.Poll        `json:"poll_updated,omitempty"`
	PollDeleted    *PollDeleted       `json:"poll_deleted,omitempty"`
	NewFoodShare   *types.ShareNotice `json:"new_food_share,omitempty"`
	NewTravelShare *types.ShareNotice `json:"new_travel_share,omitempty"`
	SkipClient     *Client            `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type TodoDeleted struct {
	TodoId string `json:"todo_id"`
}

type PollDeleted struct {
	PollId string `json:"poll_id"`
}

func (ev *ClientEvent) GetUserId() int {
	if ev.client != nil {
		return ev.client.user.Id
	}
	return 0
}

func NoErrAccepted(id int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func ErrRoomNotFound(id int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}
}

func ErrUnauthorized(id int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusUnauthorized,
			Error:        "not a member of this room",
		},
	}
}

func ErrValidation(id int, msg string) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        msg,
		},
	}
}

func ErrInternalError(id int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidEvent(id int) *ServerEvent {
	msg := &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid event format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
