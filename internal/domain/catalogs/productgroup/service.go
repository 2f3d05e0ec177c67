package productgroup

import (
	"context"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain"
)

// Service provides business logic for one product group catalog.
type Service struct {
	*domain.CatalogService[*Group]
	repo Repository
	kind Kind
}

// NewService creates a brand or category service.
func NewService(kind Kind, repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Group]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: string(kind),
	})

	svc := &Service{CatalogService: base, repo: repo, kind: kind}

	base.Hooks().OnBeforeCreate(func(ctx context.Context, g *Group) error {
		// Created over the API, so it survives dropping to zero products.
		g.AutoCreated = false
		return nil
	})
	base.Hooks().OnBeforeUpdate(svc.guardRename)
	base.Hooks().OnBeforeDelete(svc.guardDelete)

	return svc
}

// guardRename rejects renaming a group that products still reference by name.
func (s *Service) guardRename(ctx context.Context, g *Group) error {
	stored, err := s.repo.GetByID(ctx, g.ID)
	if err != nil {
		return err
	}
	if stored.Name == g.Name {
		return nil
	}
	n, err := s.repo.CountProducts(ctx, stored.Name)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewConflict(string(s.kind) + " is referenced by products and cannot be renamed").
			WithDetail("name", stored.Name).
			WithDetail("products", n)
	}
	return nil
}

func (s *Service) guardDelete(ctx context.Context, g *Group) error {
	n, err := s.repo.CountProducts(ctx, g.Name)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewConflict(string(s.kind) + " has products").
			WithDetail("name", g.Name).
			WithDetail("products", n)
	}
	return nil
}
