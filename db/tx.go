package db

import (
	"context"
	"database/sql"
)

// Tx is a sql.Tx that runs callbacks once committed
type Tx struct {
	*sql.Tx
	onCommit []func()
}

func NewTx(ctx context.Context, db *sql.DB) (*Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx}, nil
}

// AddCommitCallback registers cb to run after a successful Commit
func (s *Tx) AddCommitCallback(cb func()) {
	s.onCommit = append(s.onCommit, cb)
}

func (s *Tx) Commit() error {
	if err := s.Tx.Commit(); err != nil {
		return err
	}
	for _, cb := range s.onCommit {
		cb()
	}
	return nil
}
