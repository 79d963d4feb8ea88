package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id                int
	Name              string
	EmailAddress      string
	PhoneNumber       string
	PaymentHandle     string
	ProfilePictureUrl string
	PasswordHash      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Room struct {
	Id              int
	ExternalId      string
	Name            string
	OwnerId         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Members         []User
	PendingRequests []User
}

type Message struct {
	Id            int
	ExternalId    string
	RoomId        int
	RoomExternal  string
	SenderId      int
	SenderName    string
	SenderPicture string
	Text          string
	CreatedAt     time.Time
}

type Todo struct {
	Id               int
	ExternalId       string
	RoomId           int
	RoomExternal     string
	Text             string
	IsCompleted      bool
	CreatedById      int
	CreatedByName    string
	CreatedByPicture string
	CompletedById    sql.NullInt64
	CompletedByName  sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PollOption struct {
	Id         int
	ExternalId string
	Text       string
	Position   int
	Votes      []User
}

type Poll struct {
	Id               int
	ExternalId       string
	RoomId           int
	RoomExternal     string
	Question         string
	CreatedById      int
	CreatedByName    string
	CreatedByPicture string
	Options          []PollOption
	CreatedAt        time.Time
}

type Notification struct {
	Id          int
	ExternalId  string
	RecipientId int
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}

type Expense struct {
	Id           int
	ExternalId   string
	RoomId       int
	RoomExternal string
	Description  string
	Amount       float64
	PaidById     int
	PaidByName   string
	OwedById     int
	OwedByName   string
	IsSettled    bool
	CreatedAt    time.Time
}

type CreateAccountParams struct {
	Name          string
	EmailAddress  string
	PhoneNumber   string
	PaymentHandle string
	PasswordHash  string
}

type CreateRoomParams struct {
	Name       string
	OwnerId    int
	ExternalId string
}

type CreateMessageParams struct {
	RoomId   int
	SenderId int
	Text     string
}

type CreateTodoParams struct {
	RoomId      int
	Text        string
	CreatedById int
}

type CreatePollParams struct {
	RoomId      int
	Question    string
	CreatedById int
	Options     []string
}

type CreateExpenseParams struct {
	RoomId      int
	Description string
	Amount      float64
	PaidById    int
	OwedById    int
}
