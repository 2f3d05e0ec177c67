// Package documentstest provides in-memory document repositories and a
// transaction manager that rolls them back together with a ledgertest.Store.
package documentstest

import (
	"context"
	"sort"
	"sync"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/documents"
	"bizbook/internal/domain/ledger/ledgertest"
)

// Snapshotter can save and restore its state.
type Snapshotter interface {
	snapshot() func()
}

// Repo stores documents of one type. Clone must deep-copy a document so the
// repository never shares memory with callers.
type Repo[T documents.Document] struct {
	mu    sync.Mutex
	items map[id.ID]T
	clone func(T) T
}

// NewRepo creates an empty repository.
func NewRepo[T documents.Document](clone func(T) T) *Repo[T] {
	return &Repo[T]{items: make(map[id.ID]T), clone: clone}
}

func (r *Repo[T]) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[id.ID]T, len(r.items))
	for k, v := range r.items {
		saved[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.items = saved
	}
}

// Len returns the number of stored documents.
func (r *Repo[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// All returns copies of the stored documents in number order.
func (r *Repo[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.items))
	for _, v := range r.items {
		out = append(out, r.clone(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetNumber() < out[j].GetNumber() })
	return out
}

// Create implements documents.Repository.
func (r *Repo[T]) Create(_ context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.GetNumber() == doc.GetNumber() {
			return apperror.NewDuplicate("document", "number", doc.GetNumber())
		}
	}
	r.items[doc.GetID()] = r.clone(doc)
	return nil
}

// GetByID implements documents.Repository.
func (r *Repo[T]) GetByID(_ context.Context, docID id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[docID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("document", docID)
	}
	return r.clone(v), nil
}

// GetForUpdate implements documents.Repository.
func (r *Repo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.GetByID(ctx, docID)
}

// GetByNumber implements documents.Repository.
func (r *Repo[T]) GetByNumber(_ context.Context, number string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.GetNumber() == number {
			return r.clone(v), nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound("document", number)
}

// LockByNumber implements documents.Repository.
func (r *Repo[T]) LockByNumber(ctx context.Context, number string) (T, error) {
	return r.GetByNumber(ctx, number)
}

// Update implements documents.Repository with the version check of the
// SQL repositories.
func (r *Repo[T]) Update(_ context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[doc.GetID()]
	if !ok {
		return apperror.NewNotFound("document", doc.GetID())
	}
	if v.GetVersion() != doc.GetVersion() {
		return apperror.NewConcurrentModification("document", doc.GetID())
	}
	doc.SetVersion(doc.GetVersion() + 1)
	r.items[doc.GetID()] = r.clone(doc)
	return nil
}

// Delete implements documents.Repository.
func (r *Repo[T]) Delete(_ context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[docID]; !ok {
		return apperror.NewNotFound("document", docID)
	}
	delete(r.items, docID)
	return nil
}

// List implements documents.Repository without filtering.
func (r *Repo[T]) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	items := r.All()
	total := int64(len(items))
	if filter.Offset > 0 && filter.Offset < len(items) {
		items = items[filter.Offset:]
	} else if filter.Offset >= len(items) {
		items = items[:0]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return domain.ListResult[T]{Items: items, TotalCount: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Tx runs transactions on a ledgertest.Store and restores the given
// repositories when fn fails.
type Tx struct {
	Store *ledgertest.Store
	Repos []Snapshotter
}

type nested struct{}

// RunInTransaction implements tx.Manager.
func (t *Tx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(nested{}) != nil {
		return fn(ctx)
	}
	restores := make([]func(), 0, len(t.Repos))
	for _, r := range t.Repos {
		restores = append(restores, r.snapshot())
	}
	err := t.Store.RunInTransaction(context.WithValue(ctx, nested{}, true), fn)
	if err != nil {
		for _, restore := range restores {
			restore()
		}
	}
	return err
}
