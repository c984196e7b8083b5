package postgres

import (
	"context"
	"database/sql"
	"fmt"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// Tx wraps sqlx.Tx. Nested BeginTx calls on the same context use savepoints.
type Tx struct {
	*sqlx.Tx
	depth int
	ID    string
}

// GetTx retrieves a transaction from the context if it exists
func GetTx(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*Tx)
	return tx, ok
}

func savepoint(depth int) string {
	return fmt.Sprintf("sp_%d", depth)
}

// BeginTx starts a transaction, or a savepoint when ctx already carries one
func (db *DB) BeginTx(ctx context.Context) (context.Context, *Tx, error) {
	if tx, ok := GetTx(ctx); ok {
		tx.depth++
		db.logger.Debugw("creating savepoint", "tx_id", tx.ID, "savepoint", savepoint(tx.depth))
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint(tx.depth)); err != nil {
			return ctx, nil, ierr.WithError(err).
				WithMessage("failed to create savepoint").
				Mark(ierr.ErrDatabase)
		}
		return ctx, tx, nil
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ctx, nil, ierr.WithError(err).
			WithMessage("failed to begin transaction").
			Mark(ierr.ErrDatabase)
	}

	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	db.logger.Debugw("starting new transaction", "tx_id", tx.ID)
	return context.WithValue(ctx, txKey{}, tx), tx, nil
}

// CommitTx commits the innermost transaction level
func (db *DB) CommitTx(ctx context.Context) error {
	tx, ok := GetTx(ctx)
	if !ok {
		return ierr.NewError("no transaction in context").Mark(ierr.ErrSystem)
	}

	if tx.depth > 0 {
		db.logger.Debugw("releasing savepoint", "tx_id", tx.ID, "savepoint", savepoint(tx.depth))
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint(tx.depth)); err != nil {
			return ierr.WithError(err).WithMessage("failed to release savepoint").Mark(ierr.ErrDatabase)
		}
		tx.depth--
		return nil
	}

	db.logger.Debugw("committing transaction", "tx_id", tx.ID)
	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).WithMessage("failed to commit transaction").Mark(ierr.ErrDatabase)
	}
	return nil
}

// RollbackTx rolls back the innermost transaction level
func (db *DB) RollbackTx(ctx context.Context) error {
	tx, ok := GetTx(ctx)
	if !ok {
		return ierr.NewError("no transaction in context").Mark(ierr.ErrSystem)
	}

	if tx.depth > 0 {
		db.logger.Debugw("rolling back to savepoint", "tx_id", tx.ID, "savepoint", savepoint(tx.depth))
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint(tx.depth)); err != nil {
			return ierr.WithError(err).WithMessage("failed to rollback to savepoint").Mark(ierr.ErrDatabase)
		}
		tx.depth--
		return nil
	}

	db.logger.Debugw("rolling back transaction", "tx_id", tx.ID)
	if err := tx.Rollback(); err != nil {
		return ierr.WithError(err).WithMessage("failed to rollback transaction").Mark(ierr.ErrDatabase)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic in transaction", "tx_id", tx.ID, "panic", r)
			_ = db.RollbackTx(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		db.logger.Errorw("transaction failed", "tx_id", tx.ID, "error", err)
		if rbErr := db.RollbackTx(ctx); rbErr != nil {
			return ierr.WithError(err).
				WithMessagef("rollback failed: %v", rbErr).
				Mark(ierr.ErrDatabase)
		}
		return err
	}

	return db.CommitTx(ctx)
}
