package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	messageSelect = "SELECT m.id, m.external_id, m.room_id, r.external_id, m.sender_id, a.name, a.profile_picture_url, m.content, m.created_at " +
		"FROM messages m JOIN rooms r ON m.room_id = r.id JOIN accounts a ON m.sender_id = a.id"

	todoSelect = "SELECT t.id, t.external_id, t.room_id, r.external_id, t.content, t.is_completed, " +
		"t.created_by, c.name, c.profile_picture_url, t.completed_by, d.name, t.created_at, t.updated_at " +
		"FROM todos t JOIN rooms r ON t.room_id = r.id JOIN accounts c ON t.created_by = c.id " +
		"LEFT JOIN accounts d ON t.completed_by = d.id"

	pollSelect = "SELECT p.id, p.external_id, p.room_id, r.external_id, p.question, " +
		"p.created_by, c.name, c.profile_picture_url, p.created_at " +
		"FROM polls p JOIN rooms r ON p.room_id = r.id JOIN accounts c ON p.created_by = c.id"
)

func (db *PgSphereRepository) scanMessage(row scanner) (Message, error) {
	var m Message
	err := row.Scan(
		&m.Id,
		&m.ExternalId,
		&m.RoomId,
		&m.RoomExternal,
		&m.SenderId,
		&m.SenderName,
		&m.SenderPicture,
		&m.Text,
		&m.CreatedAt,
	)
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (db *PgSphereRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	row := db.conn.QueryRow(
		"INSERT INTO messages (external_id, room_id, sender_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id",
		uuid.NewString(),
		params.RoomId,
		params.SenderId,
		params.Text,
		time.Now().UTC(),
	)

	var id int
	if err := row.Scan(&id); err != nil {
		return Message{}, err
	}

	return db.scanMessage(db.conn.QueryRow(messageSelect+" WHERE m.id = $1", id))
}

func (db *PgSphereRepository) GetMessagesByRoomId(roomId int) ([]Message, error) {
	rows, err := db.conn.Query(messageSelect+" WHERE m.room_id = $1 ORDER BY m.id", roomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0)
	for rows.Next() {
		m, err := db.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgSphereRepository) scanTodo(row scanner) (Todo, error) {
	var t Todo
	err := row.Scan(
		&t.Id,
		&t.ExternalId,
		&t.RoomId,
		&t.RoomExternal,
		&t.Text,
		&t.IsCompleted,
		&t.CreatedById,
		&t.CreatedByName,
		&t.CreatedByPicture,
		&t.CompletedById,
		&t.CompletedByName,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (db *PgSphereRepository) CreateTodo(params CreateTodoParams) (Todo, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRow(
		"INSERT INTO todos (external_id, room_id, content, created_by, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		uuid.NewString(),
		params.RoomId,
		params.Text,
		params.CreatedById,
		now,
		now,
	)

	var id int
	if err := row.Scan(&id); err != nil {
		return Todo{}, err
	}

	return db.scanTodo(db.conn.QueryRow(todoSelect+" WHERE t.id = $1", id))
}

func (db *PgSphereRepository) GetTodoByExternalId(externalId string) (Todo, error) {
	return db.scanTodo(db.conn.QueryRow(todoSelect+" WHERE t.external_id = $1 LIMIT 1", externalId))
}

func (db *PgSphereRepository) UpdateTodoCompletion(todoId int, isCompleted bool, completedById int) (Todo, error) {
	// completed_by holds the completer only while the todo is completed
	var completer any
	if isCompleted {
		completer = completedById
	}

	_, err := db.conn.Exec(
		"UPDATE todos SET is_completed = $2, completed_by = $3, updated_at = $4 WHERE id = $1",
		todoId,
		isCompleted,
		completer,
		time.Now().UTC(),
	)
	if err != nil {
		return Todo{}, err
	}

	return db.scanTodo(db.conn.QueryRow(todoSelect+" WHERE t.id = $1", todoId))
}

func (db *PgSphereRepository) DeleteTodo(todoId int) error {
	_, err := db.conn.Exec("DELETE FROM todos WHERE id = $1", todoId)
	return err
}

func (db *PgSphereRepository) GetTodosByRoomId(roomId int) ([]Todo, error) {
	rows, err := db.conn.Query(todoSelect+" WHERE t.room_id = $1 ORDER BY t.id", roomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos = make([]Todo, 0)
	for rows.Next() {
		t, err := db.scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}

	return todos, rows.Err()
}

func (db *PgSphereRepository) scanPoll(row scanner) (Poll, error) {
	var p Poll
	err := row.Scan(
		&p.Id,
		&p.ExternalId,
		&p.RoomId,
		&p.RoomExternal,
		&p.Question,
		&p.CreatedById,
		&p.CreatedByName,
		&p.CreatedByPicture,
		&p.CreatedAt,
	)
	return p, err
}

func (db *PgSphereRepository) CreatePoll(params CreatePollParams) (Poll, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Poll{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRow(
		"INSERT INTO polls (external_id, room_id, question, created_by, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id",
		uuid.NewString(),
		params.RoomId,
		params.Question,
		params.CreatedById,
		time.Now().UTC(),
	)

	var pollId int
	if err = row.Scan(&pollId); err != nil {
		return Poll{}, err
	}

	for i, label := range params.Options {
		_, err = tx.Exec(
			"INSERT INTO poll_options (external_id, poll_id, label, position) VALUES ($1, $2, $3, $4)",
			uuid.NewString(),
			pollId,
			label,
			i,
		)
		if err != nil {
			return Poll{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Poll{}, err
	}

	poll, err := db.GetPollWithVotes(pollId)
	if err != nil {
		return Poll{}, err
	}

	return *poll, nil
}

func (db *PgSphereRepository) GetPollByExternalId(externalId string) (Poll, error) {
	return db.scanPoll(db.conn.QueryRow(pollSelect+" WHERE p.external_id = $1 LIMIT 1", externalId))
}

// GetPollWithVotes resolves the poll's options and every voter's identity,
// producing the canonical record broadcast payloads are built from.
func (db *PgSphereRepository) GetPollWithVotes(pollId int) (*Poll, error) {
	poll, err := db.scanPoll(db.conn.QueryRow(pollSelect+" WHERE p.id = $1 LIMIT 1", pollId))
	if err != nil {
		return nil, err
	}

	optRows, err := db.conn.Query(
		"SELECT id, external_id, label, position FROM poll_options WHERE poll_id = $1 ORDER BY position",
		pollId,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch options: %w", err)
	}
	defer optRows.Close()

	poll.Options = make([]PollOption, 0)
	byId := make(map[int]int)
	for optRows.Next() {
		var opt PollOption
		if err := optRows.Scan(&opt.Id, &opt.ExternalId, &opt.Text, &opt.Position); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opt.Votes = make([]User, 0)
		byId[opt.Id] = len(poll.Options)
		poll.Options = append(poll.Options, opt)
	}
	if err := optRows.Err(); err != nil {
		return nil, err
	}

	voteRows, err := db.conn.Query(
		"SELECT v.option_id, a.id, a.name, a.profile_picture_url FROM poll_votes v "+
			"JOIN accounts a ON v.account_id = a.id WHERE v.poll_id = $1 ORDER BY v.created_at",
		pollId,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch votes: %w", err)
	}
	defer voteRows.Close()

	for voteRows.Next() {
		var optionId int
		var u User
		if err := voteRows.Scan(&optionId, &u.Id, &u.Name, &u.ProfilePictureUrl); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		if i, ok := byId[optionId]; ok {
			poll.Options[i].Votes = append(poll.Options[i].Votes, u)
		}
	}

	return &poll, voteRows.Err()
}

// SetPollVote replaces the account's vote within the poll. The delete and
// insert run in one transaction, and the poll_votes primary key keeps a user
// from ever holding two votes in the same poll.
func (db *PgSphereRepository) SetPollVote(pollId, optionId, accountId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(
		"DELETE FROM poll_votes WHERE poll_id = $1 AND account_id = $2",
		pollId,
		accountId,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		"INSERT INTO poll_votes (poll_id, option_id, account_id, created_at) VALUES ($1, $2, $3, $4)",
		pollId,
		optionId,
		accountId,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgSphereRepository) DeletePoll(pollId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		"DELETE FROM poll_votes WHERE poll_id = $1",
		"DELETE FROM poll_options WHERE poll_id = $1",
		"DELETE FROM polls WHERE id = $1",
	} {
		if _, err = tx.Exec(stmt, pollId); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PgSphereRepository) GetPollsByRoomId(roomId int) ([]Poll, error) {
	rows, err := db.conn.Query("SELECT id FROM polls WHERE room_id = $1 ORDER BY id", roomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	var polls = make([]Poll, 0, len(ids))
	for _, id := range ids {
		poll, err := db.GetPollWithVotes(id)
		if err != nil {
			return nil, err
		}
		polls = append(polls, *poll)
	}

	return polls, nil
}

func (db *PgSphereRepository) scanNotification(row scanner) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.Id,
		&n.ExternalId,
		&n.RecipientId,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	)
	return n, err
}

func (db *PgSphereRepository) CreateNotification(recipientId int, message string) (Notification, error) {
	row := db.conn.QueryRow(
		"INSERT INTO notifications (external_id, recipient_id, message, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, external_id, recipient_id, message, is_read, created_at",
		uuid.NewString(),
		recipientId,
		message,
		time.Now().UTC(),
	)

	return db.scanNotification(row)
}

func (db *PgSphereRepository) GetNotificationsByRecipient(accountId int) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, recipient_id, message, is_read, created_at FROM notifications "+
			"WHERE recipient_id = $1 ORDER BY id DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications = make([]Notification, 0)
	for rows.Next() {
		n, err := db.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (db *PgSphereRepository) GetNotificationByExternalId(externalId string) (Notification, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, recipient_id, message, is_read, created_at FROM notifications "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return db.scanNotification(row)
}

func (db *PgSphereRepository) MarkNotificationRead(notificationId int) error {
	_, err := db.conn.Exec("UPDATE notifications SET is_read = TRUE WHERE id = $1", notificationId)
	return err
}

func (db *PgSphereRepository) scanExpense(row scanner) (Expense, error) {
	var e Expense
	err := row.Scan(
		&e.Id,
		&e.ExternalId,
		&e.RoomId,
		&e.RoomExternal,
		&e.Description,
		&e.Amount,
		&e.PaidById,
		&e.PaidByName,
		&e.OwedById,
		&e.OwedByName,
		&e.IsSettled,
		&e.CreatedAt,
	)
	return e, err
}

const expenseSelect = "SELECT e.id, e.external_id, e.room_id, r.external_id, e.description, e.amount, " +
	"e.paid_by, p.name, e.owed_by, o.name, e.is_settled, e.created_at " +
	"FROM expenses e JOIN rooms r ON e.room_id = r.id " +
	"JOIN accounts p ON e.paid_by = p.id JOIN accounts o ON e.owed_by = o.id"

func (db *PgSphereRepository) CreateExpense(params CreateExpenseParams) (Expense, error) {
	row := db.conn.QueryRow(
		"INSERT INTO expenses (external_id, room_id, description, amount, paid_by, owed_by, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		uuid.NewString(),
		params.RoomId,
		params.Description,
		params.Amount,
		params.PaidById,
		params.OwedById,
		time.Now().UTC(),
	)

	var id int
	if err := row.Scan(&id); err != nil {
		return Expense{}, err
	}

	return db.scanExpense(db.conn.QueryRow(expenseSelect+" WHERE e.id = $1", id))
}

func (db *PgSphereRepository) GetExpensesByRoomId(roomId int) ([]Expense, error) {
	rows, err := db.conn.Query(expenseSelect+" WHERE e.room_id = $1 ORDER BY e.id", roomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses = make([]Expense, 0)
	for rows.Next() {
		e, err := db.scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

func (db *PgSphereRepository) GetExpenseByExternalId(externalId string) (Expense, error) {
	return db.scanExpense(db.conn.QueryRow(expenseSelect+" WHERE e.external_id = $1 LIMIT 1", externalId))
}

func (db *PgSphereRepository) SettleExpense(expenseId int) error {
	_, err := db.conn.Exec("UPDATE expenses SET is_settled = TRUE WHERE id = $1", expenseId)
	return err
}
