// Package documents provides the write path shared by all transaction
// documents: numbering, persistence and ledger sync in one transaction.
package documents

import (
	"context"
	"fmt"
	"time"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/pkg/logger"
)

// Document is a transaction document with a ledger effect.
type Document interface {
	entity.Validatable
	GetID() id.ID
	GetVersion() int
	SetVersion(v int)
	GetNumber() string
	SetNumber(number string)
	Stamp(userID string, created bool)

	// Recorder identifies the document in ledger records.
	Recorder() ledger.Recorder
	// Entries is the ledger effect of the current state; nil means none.
	Entries() *ledger.EntrySet
}

// Repository persists one document type.
type Repository[T Document] interface {
	Create(ctx context.Context, doc T) error
	GetByID(ctx context.Context, docID id.ID) (T, error)
	GetByNumber(ctx context.Context, number string) (T, error)
	GetForUpdate(ctx context.Context, docID id.ID) (T, error)
	LockByNumber(ctx context.Context, number string) (T, error)
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// Syncer applies ledger entry diffs. Implemented by ledger.Service.
type Syncer interface {
	Sync(ctx context.Context, rec ledger.Recorder, before, after *ledger.EntrySet) error
}

// Config wires a document service.
type Config[T Document] struct {
	Repo       Repository[T]
	TxManager  tx.Manager
	Numerator  numerator.Generator
	Numbering  numerator.Config
	Ledger     Syncer
	EntityName string
	// Now is the clock of the numbering period; defaults to time.Now.
	Now func() time.Time
}

// Service implements create, update and delete of a document type.
type Service[T Document] struct {
	repo       Repository[T]
	txManager  tx.Manager
	numerator  numerator.Generator
	numbering  numerator.Config
	ledger     Syncer
	hooks      *domain.HookRegistry[T]
	entityName string
	now        func() time.Time
}

// NewService creates a document service.
func NewService[T Document](cfg Config[T]) *Service[T] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		numerator:  cfg.Numerator,
		numbering:  cfg.Numbering,
		ledger:     cfg.Ledger,
		hooks:      domain.NewHookRegistry[T](),
		entityName: cfg.EntityName,
		now:        now,
	}
}

// Hooks returns the hook registry. All hooks run inside the write transaction.
func (s *Service[T]) Hooks() *domain.HookRegistry[T] {
	return s.hooks
}

// EntityName returns the document name used in errors.
func (s *Service[T]) EntityName() string {
	return s.entityName
}

func (s *Service[T]) notFound(err error, key any) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, key)
	}
	return err
}

func (s *Service[T]) sync(ctx context.Context, rec ledger.Recorder, before, after *ledger.EntrySet) error {
	if before == nil && after == nil {
		return nil
	}
	return s.ledger.Sync(ctx, rec, before, after)
}

// Create numbers and inserts doc and applies its ledger effect.
// Nothing is written when any step fails.
func (s *Service[T]) Create(ctx context.Context, doc T) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
			return err
		}
		if doc.GetNumber() == "" {
			number, err := s.numerator.GetNextNumber(ctx, s.numbering, nil, s.now().UTC())
			if err != nil {
				return fmt.Errorf("generate %s number: %w", s.entityName, err)
			}
			doc.SetNumber(number)
		}
		doc.Stamp(appctx.Actor(ctx), true)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		if err := s.sync(ctx, doc.Recorder(), nil, doc.Entries()); err != nil {
			return err
		}
		return s.hooks.Run(ctx, domain.AfterCreate, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "document created", "entity", s.entityName, "id", doc.GetID(), "number", doc.GetNumber())
	return nil
}

// Update writes doc and applies the difference between the stored ledger
// effect and the new one. doc must carry the version it was read with.
func (s *Service[T]) Update(ctx context.Context, doc T) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		before, err := s.repo.GetForUpdate(ctx, doc.GetID())
		if err != nil {
			return s.notFound(err, doc.GetID())
		}
		if before.GetVersion() != doc.GetVersion() {
			return apperror.NewConcurrentModification(s.entityName, doc.GetID())
		}
		doc.SetNumber(before.GetNumber())

		if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
			return err
		}
		doc.Stamp(appctx.Actor(ctx), false)

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		if err := s.sync(ctx, doc.Recorder(), before.Entries(), doc.Entries()); err != nil {
			return err
		}
		return s.hooks.RunAfterUpdate(ctx, before, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "document updated", "entity", s.entityName, "id", doc.GetID(), "number", doc.GetNumber())
	return nil
}

// Delete reverses the ledger effect of the stored document and removes it.
func (s *Service[T]) Delete(ctx context.Context, docID id.ID) error {
	var number string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return s.notFound(err, docID)
		}
		number = doc.GetNumber()

		if err := s.hooks.Run(ctx, domain.BeforeDelete, doc); err != nil {
			return err
		}
		// Derived rows go first: receivables reference the order row.
		if err := s.sync(ctx, doc.Recorder(), doc.Entries(), nil); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return s.hooks.Run(ctx, domain.AfterDelete, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "document deleted", "entity", s.entityName, "id", docID, "number", number)
	return nil
}

// GetByID retrieves a document.
func (s *Service[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return doc, s.notFound(err, docID)
	}
	return doc, nil
}

// GetByNumber retrieves a document by business number.
func (s *Service[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return doc, s.notFound(err, number)
	}
	return doc, nil
}

// List retrieves documents.
func (s *Service[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return s.repo.List(ctx, filter)
}
