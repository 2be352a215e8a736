package pgtx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type txKey struct{}

var _ store.Transactor = (*TxManager)(nil)

// TxManager runs units of work on a *sqlx.Tx carried in the context.
// Writers lock rows with SELECT ... FOR UPDATE, so READ COMMITTED is enough.
type TxManager struct {
	DB   *sqlx.DB
	opts *sql.TxOptions
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{DB: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.DB.BeginTxx(ctx, m.opts)
	if err != nil {
		return MapError("begin", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return MapError("transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return MapError("commit", err)
	}
	return nil
}

// Executor returns the transaction bound to ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// MapError turns driver errors into the engine's taxonomy. Errors that already
// belong to the taxonomy pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return &apperr.ConcurrencyConflictError{Err: err}
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return &apperr.PersistenceError{Op: op, Err: err}
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return &apperr.PersistenceError{Op: op, Err: err}
	}
	return err
}
