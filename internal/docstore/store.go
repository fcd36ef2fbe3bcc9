// Package docstore exposes SQL tables as typed document collections.
//
// Every collection row carries an opaque string id plus creation and update
// timestamps. Collections are queried with composable filters; PopOne removes
// and returns a matching document in a single statement so two callers can
// never both observe the same document.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/db/types"
)

var (
	ErrNoDocument   = errors.New("document not found")
	ErrUnknownField = errors.New("unknown field")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the connection pool shared by all collections.
type Store struct {
	conn    *sql.DB
	dialect db.Dialect
}

func NewStore(conn *sql.DB, dialect db.Dialect) *Store {
	return &Store{conn: conn, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.conn
}

func (s *Store) Dialect() db.Dialect {
	return s.dialect
}

// TxFunc is a step another service runs inside its own transaction.
type TxFunc func(ctx context.Context, tx DBTX) error

// InTx runs fn in a transaction. The transaction commits only if fn returns
// nil; otherwise every write made through tx is rolled back.
func (s *Store) InTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Doc is the header shared by every stored document.
type Doc struct {
	ID          string          `json:"id"`
	DateCreated types.Timestamp `json:"date_created"`
	DateUpdated types.Timestamp `json:"date_updated"`
}
