package database

type Repository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	UpdateProfilePicture(accountId int, url string) (User, error)

	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	GetRoomWithMembers(roomId int) (*Room, error)
	UpdateRoomName(roomId int, name string) (Room, error)
	DeleteRoom(roomId int) error
	ListRoomsForAccount(accountId int) ([]Room, error)

	IsMember(roomId, accountId int) (bool, error)
	IsOwner(roomId, accountId int) (bool, error)
	GetMembersByRoomId(roomId int) ([]User, error)
	AddJoinRequest(roomId, accountId int) error
	HasJoinRequest(roomId, accountId int) (bool, error)
	ResolveJoinRequest(roomId, accountId int, accept bool) error
	RemoveMember(roomId, accountId int) error

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessagesByRoomId(roomId int) ([]Message, error)

	CreateTodo(params CreateTodoParams) (Todo, error)
	GetTodoByExternalId(externalId string) (Todo, error)
	UpdateTodoCompletion(todoId int, isCompleted bool, completedById int) (Todo, error)
	DeleteTodo(todoId int) error
	GetTodosByRoomId(roomId int) ([]Todo, error)

	CreatePoll(params CreatePollParams) (Poll, error)
	GetPollByExternalId(externalId string) (Poll, error)
	GetPollWithVotes(pollId int) (*Poll, error)
	SetPollVote(pollId, optionId, accountId int) error
	DeletePoll(pollId int) error
	GetPollsByRoomId(roomId int) ([]Poll, error)

	CreateNotification(recipientId int, message string) (Notification, error)
	GetNotificationsByRecipient(accountId int) ([]Notification, error)
	GetNotificationByExternalId(externalId string) (Notification, error)
	MarkNotificationRead(notificationId int) error

	CreateExpense(params CreateExpenseParams) (Expense, error)
	GetExpensesByRoomId(roomId int) ([]Expense, error)
	GetExpenseByExternalId(externalId string) (Expense, error)
	SettleExpense(expenseId int) error
}
