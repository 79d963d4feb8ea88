package types

import (
	"time"
)

type User struct {
	Id                int       `json:"id"`
	Name              string    `json:"name"`
	EmailAddress      string    `json:"email_address,omitempty"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	PaymentHandle     string    `json:"payment_handle,omitempty"`
	ProfilePictureUrl string    `json:"profile_picture_url,omitempty"`
	Password          string    `json:"-"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id              string    `json:"id"`
	Name            string    `json:"name"`
	OwnerId         int       `json:"owner_id"`
	Members         []User    `json:"members,omitempty"`
	PendingRequests []User    `json:"pending_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id        string    `json:"id"`
	RoomId    string    `json:"room_id"`
	Sender    User      `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Todo struct {
	Id          string    `json:"id"`
	RoomId      string    `json:"room_id"`
	Text        string    `json:"text"`
	IsCompleted bool      `json:"is_completed"`
	CreatedBy   User      `json:"created_by"`
	CompletedBy *User     `json:"completed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type PollOption struct {
	Id    string `json:"id"`
	Text  string `json:"text"`
	Votes []User `json:"votes"`
}

type Poll struct {
	Id        string       `json:"id"`
	RoomId    string       `json:"room_id"`
	Question  string       `json:"question"`
	CreatedBy User         `json:"created_by"`
	Options   []PollOption `json:"options"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

type Notification struct {
	Id        string    `json:"id"`
	Recipient int       `json:"recipient"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

const (
	ShareTypeFood   = "food"
	ShareTypeTravel = "travel"
)

// ShareNotice is the transient food/travel broadcast payload. It is never
// persisted as-is; durable delivery happens through Notification rows.
type ShareNotice struct {
	Type         string    `json:"type"`
	From         string    `json:"from"`
	Vendor       string    `json:"vendor,omitempty"`
	Message      string    `json:"message,omitempty"`
	FromLocation string    `json:"from_location,omitempty"`
	ToLocation   string    `json:"to_location,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Expense struct {
	Id          string    `json:"id"`
	RoomId      string    `json:"room_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	PaidBy      User      `json:"paid_by"`
	OwedBy      User      `json:"owed_by"`
	IsSettled   bool      `json:"is_settled"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
