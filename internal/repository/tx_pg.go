package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IsolationLevel string

const (
	ReadCommitted IsolationLevel = "read_committed"
	Serializable  IsolationLevel = "serializable"
)

func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch IsolationLevel(s) {
	case "", ReadCommitted:
		return ReadCommitted, nil
	case Serializable:
		return Serializable, nil
	default:
		return "", fmt.Errorf("unknown isolation level %q", s)
	}
}

func (l IsolationLevel) pgx() pgx.TxIsoLevel {
	if l == Serializable {
		return pgx.Serializable
	}
	return pgx.ReadCommitted
}

type TxOptions struct {
	Isolation IsolationLevel
	// LockTimeout bounds the wait for a row lock; zero leaves the server default.
	LockTimeout time.Duration
}

type PGTransactor struct {
	pool *pgxpool.Pool
	opts TxOptions
}

func NewPGTransactor(pool *pgxpool.Pool, opts TxOptions) *PGTransactor {
	return &PGTransactor{pool: pool, opts: opts}
}

type txKey struct{}

func (t *PGTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: t.opts.Isolation.pgx()})
	if err != nil {
		return mapTxError(ctx, fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if t.opts.LockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", t.opts.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return mapTxError(ctx, fmt.Errorf("set lock timeout: %w", err))
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return mapTxError(ctx, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(ctx, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func querierFor(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgInvalidTextRep       = "22P02"
)

// mapTxError turns isolation aborts and expired deadlines into ErrTransactionConflict.
func mapTxError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrTransactionConflict) {
		return err
	}
	if isConflict(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
	}
	return err
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	default:
		return false
	}
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
