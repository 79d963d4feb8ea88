package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/server"
	"github.com/spheresapp/sphere-server/internal/types"
)

type RegisterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	PaymentHandle string `json:"payment_handle"`
	Password      string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type UpdatePictureRequest struct {
	Url string `json:"url"`
}

type RoomRequest struct {
	Name string `json:"name"`
}

type ResolveJoinRequest struct {
	AccountId int  `json:"account_id"`
	Accept    bool `json:"accept"`
}

type CreateExpenseRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	OwedById    int     `json:"owed_by_id"`
}

func (s *SphereApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func toUser(u database.User) types.User {
	return types.User{
		Id:                u.Id,
		Name:              u.Name,
		EmailAddress:      u.EmailAddress,
		PhoneNumber:       u.PhoneNumber,
		PaymentHandle:     u.PaymentHandle,
		ProfilePictureUrl: u.ProfilePictureUrl,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toRoom(r database.Room) types.Room {
	room := types.Room{
		Id:        r.ExternalId,
		Name:      r.Name,
		OwnerId:   r.OwnerId,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	for _, m := range r.Members {
		room.Members = append(room.Members, toUser(m))
	}
	for _, p := range r.PendingRequests {
		room.PendingRequests = append(room.PendingRequests, toUser(p))
	}

	return room
}

func toNotification(n database.Notification) types.Notification {
	return types.Notification{
		Id:        n.ExternalId,
		Recipient: n.RecipientId,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func toExpense(e database.Expense) types.Expense {
	return types.Expense{
		Id:          e.ExternalId,
		RoomId:      e.RoomExternal,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      types.User{Id: e.PaidById, Name: e.PaidByName},
		OwedBy:      types.User{Id: e.OwedById, Name: e.OwedByName},
		IsSettled:   e.IsSettled,
		CreatedAt:   e.CreatedAt,
	}
}

func (s *SphereApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Write([]byte("OK"))
}

func (s *SphereApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Name:          req.Name,
		EmailAddress:  req.Email,
		PhoneNumber:   req.PhoneNumber,
		PaymentHandle: req.PaymentHandle,
		PasswordHash:  pwdHash,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, toUser(newUser))
}

func (s *SphereApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  toUser(dbUser),
	})
}

func (s *SphereApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toUser(user))
}

func (s *SphereApp) updateProfilePicture(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdatePictureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Url == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.UpdateProfilePicture(userId, req.Url)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toUser(user))
}

func (s *SphereApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		Name:       req.Name,
		OwnerId:    userId,
		ExternalId: uuid.NewString(),
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, toRoom(newRoom))
}

func (s *SphereApp) listRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRooms, err := s.db.ListRoomsForAccount(userId)
	if err != nil {
		s.log.Println("list rooms:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := make([]types.Room, 0, len(dbRooms))
	for _, dbRoom := range dbRooms {
		rooms = append(rooms, toRoom(dbRoom))
	}

	s.writeJson(w, http.StatusOK, rooms)
}

// roomFromPath resolves the sphere named in the URL and verifies the caller
// is a member. It writes the error response itself on failure.
func (s *SphereApp) roomFromPath(w http.ResponseWriter, r *http.Request) (database.Room, int, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Room{}, 0, false
	}

	room, err := s.db.GetRoomByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Room{}, 0, false
	}

	member, err := s.db.IsMember(room.Id, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Room{}, 0, false
	}
	if !member {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Room{}, 0, false
	}

	return room, userId, true
}

func (s *SphereApp) getRoom(w http.ResponseWriter, r *http.Request) {
	room, userId, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	full, err := s.db.GetRoomWithMembers(room.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := toRoom(*full)
	if userId != room.OwnerId {
		// pending join requests are the owner's business only
		resp.PendingRequests = nil
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *SphereApp) renameRoom(w http.ResponseWriter, r *http.Request) {
	room, userId, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	if room.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateRoomName(room.Id, req.Name)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toRoom(updated))
}

func (s *SphereApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	room, userId, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	if room.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteRoom(room.Id); err != nil {
		s.log.Println("delete room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *SphereApp) requestJoin(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	member, err := s.db.IsMember(room.Id, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if member {
		errResp := NewConflictError("already a member")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pending, err := s.db.HasJoinRequest(room.Id, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if pending {
		errResp := NewConflictError("join request already pending")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.AddJoinRequest(room.Id, userId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusAccepted, nil)
}

func (s *SphereApp) resolveJoinRequest(w http.ResponseWriter, r *http.Request) {
	room, userId, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	if room.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ResolveJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.ResolveJoinRequest(room.Id, req.AccountId, req.Accept); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *SphereApp) removeMember(w http.ResponseWriter, r *http.Request) {
	room, userId, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	targetId, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// members may leave; only the owner may remove someone else
	if targetId != userId && room.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// the owner cannot leave their own sphere, they delete it instead
	if targetId == room.OwnerId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.RemoveMember(room.Id, targetId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *SphereApp) getMessages(w http.ResponseWriter, r *http.Request) {
	room, _, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	dbMessages, err := s.db.GetMessagesByRoomId(room.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := make([]types.Message, 0, len(dbMessages))
	for _, msg := range dbMessages {
		messages = append(messages, server.ToMessage(msg))
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *SphereApp) getTodos(w http.ResponseWriter, r *http.Request) {
	room, _, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	dbTodos, err := s.db.GetTodosByRoomId(room.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	todos := make([]types.Todo, 0, len(dbTodos))
	for _, todo := range dbTodos {
		todos = append(todos, server.ToTodo(todo))
	}

	s.writeJson(w, http.StatusOK, todos)
}

func (s *SphereApp) getPolls(w http.ResponseWriter, r *http.Request) {
	room, _, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	dbPolls, err := s.db.GetPollsByRoomId(room.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	polls := make([]types.Poll, 0, len(dbPolls))
	for _, poll := range dbPolls {
		polls = append(polls, server.ToPoll(poll))
	}

	s.writeJson(w, http.StatusOK, polls)
}

func (s *SphereApp) getNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbNotifications, err := s.db.GetNotificationsByRecipient(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notifications := make([]types.Notification, 0, len(dbNotifications))
	for _, n := range dbNotifications {
		notifications = append(notifications, toNotification(n))
	}

	s.writeJson(w, http.StatusOK, notifications)
}

func (s *SphereApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notification, err := s.db.GetNotificationByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if notification.RecipientId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.MarkNotificationRead(notification.Id); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *SphereApp) createExpense(w http.ResponseWriter, r *http.Request) {
	room, userId, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Description == "" || req.Amount <= 0 || req.OwedById == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	debtorMember, err := s.db.IsMember(room.Id, req.OwedById)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if !debtorMember {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	expense, err := s.db.CreateExpense(database.CreateExpenseParams{
		RoomId:      room.Id,
		Description: req.Description,
		Amount:      req.Amount,
		PaidById:    userId,
		OwedById:    req.OwedById,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, toExpense(expense))
}

func (s *SphereApp) getExpenses(w http.ResponseWriter, r *http.Request) {
	room, _, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}

	dbExpenses, err := s.db.GetExpensesByRoomId(room.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	expenses := make([]types.Expense, 0, len(dbExpenses))
	for _, e := range dbExpenses {
		expenses = append(expenses, toExpense(e))
	}

	s.writeJson(w, http.StatusOK, expenses)
}

func (s *SphereApp) settleExpense(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	expense, err := s.db.GetExpenseByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// either side of the debt may mark it settled
	if expense.PaidById != userId && expense.OwedById != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.SettleExpense(expense.Id); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *SphereApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			// the account was deleted after the token was issued
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients send no origin header
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(toUser(user), conn, s.gw, s.log)

	s.gw.RegisterClient(client)
	go client.Write()
	go client.Read()
}
