package database

import "fmt"

// CreateSchema creates all tables needed by the application. Safe to call
// multiple times.
func (db *PgSphereRepository) CreateSchema() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone_number TEXT NOT NULL DEFAULT '',
	payment_handle TEXT NOT NULL DEFAULT '',
	profile_picture_url TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS room_members (
	id SERIAL PRIMARY KEY,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (room_id, account_id)
);

CREATE TABLE IF NOT EXISTS room_join_requests (
	id SERIAL PRIMARY KEY,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (room_id, account_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	sender_id INTEGER NOT NULL REFERENCES accounts(id),
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages(room_id);

CREATE TABLE IF NOT EXISTS todos (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	content TEXT NOT NULL,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_by INTEGER NOT NULL REFERENCES accounts(id),
	completed_by INTEGER REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_todos_room_id ON todos(room_id);

CREATE TABLE IF NOT EXISTS polls (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	question TEXT NOT NULL,
	created_by INTEGER NOT NULL REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_polls_room_id ON polls(room_id);

CREATE TABLE IF NOT EXISTS poll_options (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	poll_id INTEGER NOT NULL REFERENCES polls(id),
	label TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_options_poll_id ON poll_options(poll_id);

CREATE TABLE IF NOT EXISTS poll_votes (
	poll_id INTEGER NOT NULL REFERENCES polls(id),
	option_id INTEGER NOT NULL REFERENCES poll_options(id),
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (poll_id, account_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	recipient_id INTEGER NOT NULL REFERENCES accounts(id),
	message TEXT NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient_id ON notifications(recipient_id);

CREATE TABLE IF NOT EXISTS expenses (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	description TEXT NOT NULL,
	amount NUMERIC(12,2) NOT NULL,
	paid_by INTEGER NOT NULL REFERENCES accounts(id),
	owed_by INTEGER NOT NULL REFERENCES accounts(id),
	is_settled BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_room_id ON expenses(room_id);
`
