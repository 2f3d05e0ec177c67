// Package domain holds the generic catalog service, its repository contract and
// the list filter shared by every store.
package domain

import (
	"context"
	"time"

	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/filter"
)

// ListFilter is parsed from the list query string of every resource.
type ListFilter struct {
	Search          string // ILIKE over the searchable columns
	IDs             []id.ID
	IncludeDeleted  bool
	AdvancedFilters []filter.Item

	// DateFrom and DateTo bound the business date; DateTo includes its whole day.
	DateFrom *time.Time
	DateTo   *time.Time

	OrderBy string // column name, "-" prefix for descending
	Limit   int
	Offset  int
}

// DefaultListFilter returns the first page of 50 ordered by name.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50, OrderBy: "name"}
}

// DateBefore returns the exclusive upper bound for DateTo: midnight UTC of
// the following day. It is nil when DateTo is unset.
func (f ListFilter) DateBefore() *time.Time {
	if f.DateTo == nil {
		return nil
	}
	t := f.DateTo.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return &next
}

// ListResult is one page of a list.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository is the storage contract of CatalogService.
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	// GetByCode looks up the business code (CUS0001, a productId, ...).
	GetByCode(ctx context.Context, code string) (T, error)
	// Update fails with CONCURRENT_MODIFICATION when the version moved.
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id id.ID) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
	Exists(ctx context.Context, id id.ID) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// HookEvent names a point in the write lifecycle.
type HookEvent int

const (
	BeforeCreate HookEvent = iota
	AfterCreate
	BeforeUpdate
	BeforeDelete
	AfterDelete
)

// Hook runs at one lifecycle point inside the write transaction; an error
// rolls the write back.
type Hook[T any] func(ctx context.Context, entity T) error

// ChangeHook observes an update with the stored and the new state.
type ChangeHook[T any] func(ctx context.Context, before, after T) error

// HookRegistry holds the hooks of one service, run in registration order.
type HookRegistry[T any] struct {
	hooks       [AfterDelete + 1][]Hook[T]
	afterUpdate []ChangeHook[T]
}

func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{}
}

// Run executes the hooks of event and stops at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// RunAfterUpdate executes the change hooks.
func (r *HookRegistry[T]) RunAfterUpdate(ctx context.Context, before, after T) error {
	for _, hook := range r.afterUpdate {
		if err := hook(ctx, before, after); err != nil {
			return err
		}
	}
	return nil
}

func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.hooks[BeforeCreate] = append(r.hooks[BeforeCreate], hook) }
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T])  { r.hooks[AfterCreate] = append(r.hooks[AfterCreate], hook) }
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.hooks[BeforeUpdate] = append(r.hooks[BeforeUpdate], hook) }
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.hooks[BeforeDelete] = append(r.hooks[BeforeDelete], hook) }
func (r *HookRegistry[T]) OnAfterDelete(hook Hook[T])  { r.hooks[AfterDelete] = append(r.hooks[AfterDelete], hook) }

// OnAfterUpdate registers a hook receiving the stored and the new state.
func (r *HookRegistry[T]) OnAfterUpdate(hook ChangeHook[T]) {
	r.afterUpdate = append(r.afterUpdate, hook)
}
