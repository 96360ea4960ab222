package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/0xPolygon/posexit/common"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = fmt.Errorf("db: %w", common.ErrNotFound)
)

// NewSQLiteDB creates a new SQLite DB
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		pragma journal_mode = WAL;
		pragma synchronous = normal;
		pragma journal_size_limit  = 6144000;
	`)
	return db, err
}

// ReturnErrNotFound translates sql.ErrNoRows into ErrNotFound
func ReturnErrNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
