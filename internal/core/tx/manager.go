// Package tx defines the transaction contract used by domain services.
// The pgx implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a unit of work in a database transaction.
//
// Nested calls reuse the transaction already stored in ctx, so a domain
// service can call another service's transactional method freely.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions for reports.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Inline is a Manager that runs fn directly without a transaction.
// Tests use it together with in-memory repositories.
type Inline struct{}

// RunInTransaction implements Manager.
func (Inline) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly implements ReadOnlyManager.
func (Inline) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
