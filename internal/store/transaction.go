package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/musaabMD/expoiosweb/internal/platform/logger"
)

// TxFn is the unit of work run by a Transactor. Returning an error rolls
// the transaction back; returning nil commits it.
type TxFn func(ctx context.Context, tx *sqlx.Tx) error

// Transactor runs a function inside a transaction. Services depend on it
// instead of *sqlx.DB so their orchestration can be tested without a database.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFn) error
}

// TransactorOption customizes NewTransactor.
type TransactorOption func(*sqlxTransactor)

// WithTxOptions sets the options passed to BeginTxx, e.g. an isolation level.
func WithTxOptions(opts *sql.TxOptions) TransactorOption {
	return func(t *sqlxTransactor) { t.opts = opts }
}

type sqlxTransactor struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTransactor returns a Transactor backed by db. It panics on a nil db,
// which is a wiring bug.
func NewTransactor(db *sqlx.DB, options ...TransactorOption) Transactor {
	if db == nil {
		panic("store: NewTransactor called with nil db")
	}
	t := &sqlxTransactor{db: db}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// WithinTx implements Transactor. A panic inside fn rolls back and is re-raised.
func (t *sqlxTransactor) WithinTx(ctx context.Context, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := t.db.BeginTxx(ctx, t.opts)
	if err != nil {
		log.Error("could not begin transaction", "error", err)
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback after panic failed", "error", rbErr, "panic", p)
		}
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", "error", rbErr, "cause", err)
			return fmt.Errorf("rollback: %v (after: %w)", rbErr, err)
		}
		log.Debug("transaction rolled back", slog.Any("cause", err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("could not commit transaction", "error", err)
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	return nil
}
