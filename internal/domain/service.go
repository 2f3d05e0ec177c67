package domain

import (
	"context"
	"fmt"
	"time"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/pkg/logger"
)

// Coded is implemented by catalogs with a generated business code.
type Coded interface {
	GetCode() string
	SetCode(code string)
}

// Identifiable is implemented by every entity embedding entity.BaseEntity.
type Identifiable interface {
	GetID() id.ID
}

// CatalogService provides business logic for catalog entities.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	numerator numerator.Generator
	numbering *numerator.Config
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo      CatalogRepository[T]
	TxManager tx.Manager
	Numerator numerator.Generator
	// Numbering, when set, assigns a business code to entities created without one.
	Numbering  *numerator.Config
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		numerator:  cfg.Numerator,
		numbering:  cfg.Numbering,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the entity name used in error messages.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	// Re-label not-found with this service's entity name.
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrCode)
}

// assignCode allocates the business code inside the create transaction.
func (s *CatalogService[T]) assignCode(ctx context.Context, e T) error {
	if s.numbering == nil || s.numerator == nil {
		return nil
	}
	coded, ok := any(e).(Coded)
	if !ok || coded.GetCode() != "" {
		return nil
	}
	code, err := s.numerator.GetNextNumber(ctx, *s.numbering, nil, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("generate %s code: %w", s.entityName, err)
	}
	coded.SetCode(code)
	return nil
}

// Create validates e, assigns its code and inserts it with the create hooks in one transaction.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return err
		}
		if err := s.assignCode(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.hooks.Run(ctx, AfterCreate, e)
	})
	if err != nil {
		return err
	}

	logger.Debug(ctx, "catalog entity created", "entity", s.entityName)
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	e, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return e, s.normalizeGetErr(err, code)
	}
	return e, nil
}

// Update validates e and writes it. After-update hooks get the stored state
// read in the same transaction.
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var before T
		if ident, ok := any(e).(Identifiable); ok {
			stored, err := s.repo.GetByID(ctx, ident.GetID())
			if err != nil {
				return s.normalizeGetErr(err, ident.GetID().String())
			}
			before = stored
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return s.hooks.RunAfterUpdate(ctx, before, e)
	})
}

// Delete removes the entity. Delete hooks see the stored state.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return s.hooks.Run(ctx, AfterDelete, e)
	})
}

// SetDeletionMark sets or clears the soft deletion mark.
func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	if err := s.repo.SetDeletionMark(ctx, entityID, marked); err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}
