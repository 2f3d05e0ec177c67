// Package catalogtest provides an in-memory catalog repository for service
// tests.
package catalogtest

import (
	"context"
	"sync"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
)

// Entity is what the repository needs from a catalog row.
type Entity interface {
	entity.Validatable
	GetID() id.ID
	GetVersion() int
	SetVersion(v int)
}

// Copy returns a shallow copy of p. It suits catalog rows, which hold no
// slices or maps.
func Copy[E any](p *E) *E {
	c := *p
	return &c
}

// Repo stores catalog rows of one type in insertion order.
type Repo[T Entity] struct {
	mu    sync.Mutex
	order []id.ID
	items map[id.ID]T
	clone func(T) T
}

// NewRepo creates an empty repository. clone must copy a row so callers
// never share memory with the store.
func NewRepo[T Entity](clone func(T) T) *Repo[T] {
	return &Repo[T]{items: make(map[id.ID]T), clone: clone}
}

// Put stores e without running any service logic.
func (r *Repo[T]) Put(e T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[e.GetID()]; !ok {
		r.order = append(r.order, e.GetID())
	}
	r.items[e.GetID()] = r.clone(e)
}

// Find returns the first row matching keep.
func (r *Repo[T]) Find(keep func(T) bool) (T, bool) {
	for _, e := range r.All() {
		if keep(e) {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// All returns copies of the stored rows.
func (r *Repo[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.clone(r.items[k]))
	}
	return out
}

// Len returns the number of stored rows.
func (r *Repo[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Create implements domain.CatalogRepository.
func (r *Repo[T]) Create(_ context.Context, e T) error {
	r.mu.Lock()
	if _, ok := r.items[e.GetID()]; ok {
		r.mu.Unlock()
		return apperror.NewDuplicate("catalog", "id", e.GetID().String())
	}
	r.mu.Unlock()
	if code := codeOf(e); code != "" {
		if _, err := r.GetByCode(context.Background(), code); err == nil {
			return apperror.NewDuplicate("catalog", "code", code)
		}
	}
	r.Put(e)
	return nil
}

// GetByID implements domain.CatalogRepository.
func (r *Repo[T]) GetByID(_ context.Context, entityID id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[entityID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("catalog", entityID)
	}
	return r.clone(e), nil
}

// GetForUpdate returns the row like GetByID; there are no row locks here.
func (r *Repo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.GetByID(ctx, entityID)
}

// GetByCode implements domain.CatalogRepository.
func (r *Repo[T]) GetByCode(_ context.Context, code string) (T, error) {
	if e, ok := r.Find(func(e T) bool { return codeOf(e) == code }); ok && code != "" {
		return e, nil
	}
	var zero T
	return zero, apperror.NewNotFound("catalog", code)
}

// Update implements domain.CatalogRepository with the version check of the
// SQL repositories.
func (r *Repo[T]) Update(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[e.GetID()]
	if !ok {
		return apperror.NewNotFound("catalog", e.GetID())
	}
	if stored.GetVersion() != e.GetVersion() {
		return apperror.NewConcurrentModification("catalog", e.GetID())
	}
	e.SetVersion(e.GetVersion() + 1)
	r.items[e.GetID()] = r.clone(e)
	return nil
}

// Delete implements domain.CatalogRepository.
func (r *Repo[T]) Delete(_ context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[entityID]; !ok {
		return apperror.NewNotFound("catalog", entityID)
	}
	delete(r.items, entityID)
	for i, k := range r.order {
		if k == entityID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetDeletionMark is accepted for stored rows; the mark is not kept.
func (r *Repo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, _ bool) error {
	_, err := r.GetByID(ctx, entityID)
	return err
}

// List implements domain.CatalogRepository without filtering.
func (r *Repo[T]) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	items := r.All()
	total := int64(len(items))
	if filter.Offset >= len(items) {
		items = items[:0]
	} else if filter.Offset > 0 {
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return domain.ListResult[T]{Items: items, TotalCount: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Exists implements domain.CatalogRepository.
func (r *Repo[T]) Exists(_ context.Context, entityID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[entityID]
	return ok, nil
}

// ExistsByCode implements domain.CatalogRepository.
func (r *Repo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func codeOf(e any) string {
	if coded, ok := e.(domain.Coded); ok {
		return coded.GetCode()
	}
	return ""
}
