package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bizbook/internal/core/tx"
	"bizbook/pkg/logger"
)

var tracer = otel.Tracer("bizbook/tx")

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// DefaultStatementTimeout bounds every statement of a business transaction.
const DefaultStatementTimeout = 30 * time.Second

// Querier is satisfied by both pgx.Tx and *pgxpool.Pool, so repositories
// work inside and outside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs units of work in pgx transactions. The outermost call opens
// the transaction and stores it in ctx; nested calls join it. A document
// write, its ledger rows, audit entries and outbox events therefore commit
// or roll back together.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// NewTxManager creates a transaction manager over the pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool, statementTimeout: DefaultStatementTimeout}
}

type txKey struct{}

// txState is the transaction carried in ctx. depth counts open savepoints.
type txState struct {
	tx    pgx.Tx
	depth int
}

func stateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// RunInTransaction executes fn in a read-write transaction, joining the one
// in ctx if there is one.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadWrite, fn)
}

// ReadOnly executes fn in a read-only transaction. Reports use it so every
// aggregate of one response sees the same snapshot.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadOnly, fn)
}

// Savepoint runs fn inside the current transaction behind a savepoint, so a
// failing statement in fn leaves the outer transaction usable. Without a
// transaction in ctx it behaves like RunInTransaction.
func (m *TxManager) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	st := stateFrom(ctx)
	if st == nil {
		return m.RunInTransaction(ctx, fn)
	}

	name := fmt.Sprintf("sp_%d", st.depth+1)
	if _, err := st.tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	inner := &txState{tx: st.tx, depth: st.depth + 1}
	if err := fn(context.WithValue(ctx, txKey{}, inner)); err != nil {
		if _, rbErr := st.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := st.tx.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (m *TxManager) run(ctx context.Context, mode pgx.TxAccessMode, fn func(ctx context.Context) error) error {
	if stateFrom(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.access_mode", string(mode))))
	defer span.End()

	err := m.begin(ctx, mode, fn)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (m *TxManager) begin(ctx context.Context, mode pgx.TxAccessMode, fn func(ctx context.Context) error) error {
	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: mode})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if m.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.statementTimeout.Milliseconds())
		if _, err := pgTx.Exec(ctx, stmt); err != nil {
			rollback(ctx, pgTx, err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, &txState{tx: pgTx})); err != nil {
		rollback(ctx, pgTx, err)
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rollback must complete even when ctx is already cancelled.
func rollback(ctx context.Context, pgTx pgx.Tx, cause error) {
	if err := pgTx.Rollback(context.Background()); err != nil {
		logger.Error(ctx, "rollback failed", "error", err, "original_error", cause)
	}
}

// GetTx returns the transaction in ctx, or nil outside one.
func (m *TxManager) GetTx(ctx context.Context) pgx.Tx {
	if st := stateFrom(ctx); st != nil {
		return st.tx
	}
	return nil
}

// GetQuerier returns the transaction in ctx, or the pool outside one.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if st := stateFrom(ctx); st != nil {
		return st.tx
	}
	return m.pool
}
