package database

import (
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateProfilePicture(accountId int, url string) (User, error) {
	args := m.Called(accountId, url)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetRoomWithMembers(roomId int) (*Room, error) {
	args := m.Called(roomId)
	if room, ok := args.Get(0).(*Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) UpdateRoomName(roomId int, name string) (Room, error) {
	args := m.Called(roomId, name)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) DeleteRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockRepository) ListRoomsForAccount(accountId int) ([]Room, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockRepository) IsMember(roomId, accountId int) (bool, error) {
	args := m.Called(roomId, accountId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) IsOwner(roomId, accountId int) (bool, error) {
	args := m.Called(roomId, accountId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) GetMembersByRoomId(roomId int) ([]User, error) {
	args := m.Called(roomId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) AddJoinRequest(roomId, accountId int) error {
	args := m.Called(roomId, accountId)
	return args.Error(0)
}
func (m *MockRepository) HasJoinRequest(roomId, accountId int) (bool, error) {
	args := m.Called(roomId, accountId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) ResolveJoinRequest(roomId, accountId int, accept bool) error {
	args := m.Called(roomId, accountId, accept)
	return args.Error(0)
}
func (m *MockRepository) RemoveMember(roomId, accountId int) error {
	args := m.Called(roomId, accountId)
	return args.Error(0)
}
func (m *MockRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessagesByRoomId(roomId int) ([]Message, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) CreateTodo(params CreateTodoParams) (Todo, error) {
	args := m.Called(params)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) GetTodoByExternalId(externalId string) (Todo, error) {
	args := m.Called(externalId)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) UpdateTodoCompletion(todoId int, isCompleted bool, completedById int) (Todo, error) {
	args := m.Called(todoId, isCompleted, completedById)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) DeleteTodo(todoId int) error {
	args := m.Called(todoId)
	return args.Error(0)
}
func (m *MockRepository) GetTodosByRoomId(roomId int) ([]Todo, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Todo), args.Error(1)
}
func (m *MockRepository) CreatePoll(params CreatePollParams) (Poll, error) {
	args := m.Called(params)
	return args.Get(0).(Poll), args.Error(1)
}
func (m *MockRepository) GetPollByExternalId(externalId string) (Poll, error) {
	args := m.Called(externalId)
	return args.Get(0).(Poll), args.Error(1)
}
func (m *MockRepository) GetPollWithVotes(pollId int) (*Poll, error) {
	args := m.Called(pollId)
	if poll, ok := args.Get(0).(*Poll); ok {
		return poll, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) SetPollVote(pollId, optionId, accountId int) error {
	args := m.Called(pollId, optionId, accountId)
	return args.Error(0)
}
func (m *MockRepository) DeletePoll(pollId int) error {
	args := m.Called(pollId)
	return args.Error(0)
}
func (m *MockRepository) GetPollsByRoomId(roomId int) ([]Poll, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Poll), args.Error(1)
}
func (m *MockRepository) CreateNotification(recipientId int, message string) (Notification, error) {
	args := m.Called(recipientId, message)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockRepository) GetNotificationsByRecipient(accountId int) ([]Notification, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockRepository) GetNotificationByExternalId(externalId string) (Notification, error) {
	args := m.Called(externalId)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockRepository) MarkNotificationRead(notificationId int) error {
	args := m.Called(notificationId)
	return args.Error(0)
}
func (m *MockRepository) CreateExpense(params CreateExpenseParams) (Expense, error) {
	args := m.Called(params)
	return args.Get(0).(Expense), args.Error(1)
}
func (m *MockRepository) GetExpensesByRoomId(roomId int) ([]Expense, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Expense), args.Error(1)
}
func (m *MockRepository) GetExpenseByExternalId(externalId string) (Expense, error) {
	args := m.Called(externalId)
	return args.Get(0).(Expense), args.Error(1)
}
func (m *MockRepository) SettleExpense(expenseId int) error {
	args := m.Called(expenseId)
	return args.Error(0)
}
