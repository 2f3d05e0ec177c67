package party

import (
	"context"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain"
)

// Service provides business logic for one party catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Party]
	repo        Repository
	kind        Kind
	phoneRegion string
}

// Config wires a party service.
type Config struct {
	Kind      Kind
	Repo      Repository
	TxManager tx.Manager
	Numerator numerator.Generator
	// PhoneRegion is the default region for numbers without a country code.
	PhoneRegion string
}

// NewService creates a customer or supplier service.
func NewService(cfg Config) *Service {
	numbering := numerator.CustomerConfig
	if cfg.Kind == KindSupplier {
		numbering = numerator.SupplierConfig
	}

	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Party]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		Numerator:  cfg.Numerator,
		Numbering:  &numbering,
		EntityName: string(cfg.Kind),
	})

	svc := &Service{
		CatalogService: base,
		repo:           cfg.Repo,
		kind:           cfg.Kind,
		phoneRegion:    cfg.PhoneRegion,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

// Kind returns the catalog this service manages.
func (s *Service) Kind() Kind {
	return s.kind
}

// prepare normalizes the phone and checks email uniqueness so the caller
// gets a field error instead of a constraint name.
func (s *Service) prepare(ctx context.Context, p *Party) error {
	phone, err := NormalizePhone(p.Phone, s.phoneRegion)
	if err != nil {
		return err
	}
	p.Phone = phone

	existing, err := s.repo.FindByEmail(ctx, p.Email)
	switch {
	case apperror.IsNotFound(err):
		return nil
	case err != nil:
		return err
	case existing.ID != p.ID:
		return apperror.NewDuplicate(string(s.kind), "email", p.Email)
	}
	return nil
}
