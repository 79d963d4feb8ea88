package database

import (
	"database/sql"
	"fmt"
	"time"
)

func (db *PgSphereRepository) CreateAccount(params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO accounts (name, email, phone_number, payment_handle, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, name, email, phone_number, payment_handle, created_at, updated_at",
		params.Name,
		params.EmailAddress,
		params.PhoneNumber,
		params.PaymentHandle,
		params.PasswordHash,
		now,
		now,
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.PhoneNumber,
		&u.PaymentHandle,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSphereRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, phone_number, payment_handle, profile_picture_url, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.PhoneNumber,
		&u.PaymentHandle,
		&u.ProfilePictureUrl,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSphereRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, phone_number, payment_handle, profile_picture_url, password_hash, created_at, updated_at "+
			"FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.PhoneNumber,
		&u.PaymentHandle,
		&u.ProfilePictureUrl,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSphereRepository) UpdateProfilePicture(accountId int, url string) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET profile_picture_url = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, name, email, phone_number, payment_handle, profile_picture_url, created_at, updated_at",
		accountId,
		url,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.PhoneNumber,
		&u.PaymentHandle,
		&u.ProfilePictureUrl,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSphereRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, name, owner_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, external_id, name, owner_id, created_at, updated_at",
		params.ExternalId,
		params.Name,
		params.OwnerId,
		now,
		now,
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.OwnerId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	// the owner is always a member
	_, err = tx.Exec(
		"INSERT INTO room_members (room_id, account_id, created_at) VALUES ($1, $2, $3)",
		room.Id,
		params.OwnerId,
		now,
	)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, err
}

func (db *PgSphereRepository) GetRoomByExternalId(externalId string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, owner_id, created_at, updated_at FROM rooms "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.OwnerId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgSphereRepository) GetRoomWithMembers(roomId int) (*Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, owner_id, created_at, updated_at FROM rooms WHERE id = $1 LIMIT 1",
		roomId,
	)

	room := &Room{}
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.OwnerId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	room.Members, err = db.GetMembersByRoomId(roomId)
	if err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}

	rows, err := db.conn.Query(
		"SELECT a.id, a.name, a.email, a.profile_picture_url FROM room_join_requests AS j "+
			"JOIN accounts AS a ON j.account_id = a.id WHERE j.room_id = $1 ORDER BY j.id",
		roomId,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch join requests: %w", err)
	}
	defer rows.Close()

	room.PendingRequests = make([]User, 0)
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Name, &u.EmailAddress, &u.ProfilePictureUrl); err != nil {
			return nil, fmt.Errorf("scan join request: %w", err)
		}
		room.PendingRequests = append(room.PendingRequests, u)
	}

	return room, rows.Err()
}

func (db *PgSphereRepository) UpdateRoomName(roomId int, name string) (Room, error) {
	res := db.conn.QueryRow(
		"UPDATE rooms SET name = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, external_id, name, owner_id, created_at, updated_at",
		roomId,
		name,
		time.Now().UTC(),
	)

	var room Room
	err := res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.OwnerId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

// DeleteRoom removes the room and everything derived from it.
func (db *PgSphereRepository) DeleteRoom(roomId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmts := []string{
		"DELETE FROM poll_votes WHERE poll_id IN (SELECT id FROM polls WHERE room_id = $1)",
		"DELETE FROM poll_options WHERE poll_id IN (SELECT id FROM polls WHERE room_id = $1)",
		"DELETE FROM polls WHERE room_id = $1",
		"DELETE FROM todos WHERE room_id = $1",
		"DELETE FROM messages WHERE room_id = $1",
		"DELETE FROM expenses WHERE room_id = $1",
		"DELETE FROM room_join_requests WHERE room_id = $1",
		"DELETE FROM room_members WHERE room_id = $1",
		"DELETE FROM rooms WHERE id = $1",
	}
	for _, stmt := range stmts {
		if _, err = tx.Exec(stmt, roomId); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PgSphereRepository) ListRoomsForAccount(accountId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT r.id, r.external_id, r.name, r.owner_id, r.created_at, r.updated_at FROM room_members m "+
			"JOIN rooms r ON r.id = m.room_id WHERE m.account_id = $1 ORDER BY m.id",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err = rows.Scan(&room.Id, &room.ExternalId, &room.Name, &room.OwnerId, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (db *PgSphereRepository) IsMember(roomId, accountId int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT 1 FROM room_members WHERE room_id = $1 AND account_id = $2 LIMIT 1",
		roomId,
		accountId,
	)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return err == nil, err
}

func (db *PgSphereRepository) IsOwner(roomId, accountId int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT 1 FROM rooms WHERE id = $1 AND owner_id = $2 LIMIT 1",
		roomId,
		accountId,
	)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return err == nil, err
}

func (db *PgSphereRepository) GetMembersByRoomId(roomId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT a.id, a.name, a.email, a.payment_handle, a.profile_picture_url FROM room_members AS m "+
			"JOIN accounts AS a ON m.account_id = a.id WHERE m.room_id = $1 ORDER BY m.id",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members = make([]User, 0)
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Name, &u.EmailAddress, &u.PaymentHandle, &u.ProfilePictureUrl); err != nil {
			return nil, err
		}
		members = append(members, u)
	}

	return members, rows.Err()
}

func (db *PgSphereRepository) AddJoinRequest(roomId, accountId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO room_join_requests (room_id, account_id, created_at) VALUES ($1, $2, $3)",
		roomId,
		accountId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgSphereRepository) HasJoinRequest(roomId, accountId int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT 1 FROM room_join_requests WHERE room_id = $1 AND account_id = $2 LIMIT 1",
		roomId,
		accountId,
	)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return err == nil, err
}

// ResolveJoinRequest removes the pending request and, when accepted, adds the
// account as a member in the same transaction so the user is never in both
// sets.
func (db *PgSphereRepository) ResolveJoinRequest(roomId, accountId int, accept bool) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.Exec(
		"DELETE FROM room_join_requests WHERE room_id = $1 AND account_id = $2",
		roomId,
		accountId,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if accept {
		_, err = tx.Exec(
			"INSERT INTO room_members (room_id, account_id, created_at) VALUES ($1, $2, $3)",
			roomId,
			accountId,
			time.Now().UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PgSphereRepository) RemoveMember(roomId, accountId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM room_members WHERE room_id = $1 AND account_id = $2",
		roomId,
		accountId,
	)

	return err
}
