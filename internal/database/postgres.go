package database

import (
	"database/sql"
)

type PgSphereRepository struct {
	conn *sql.DB
}

func NewPgSphereRepository(dsn string) (*PgSphereRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgSphereRepository{conn: db}, nil
}

func (db *PgSphereRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgSphereRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
