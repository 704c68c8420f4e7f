package supplier

import (
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
)

// Service provides supplier CRUD on top of domain.CatalogService.
type Service struct {
	*domain.CatalogService[*Supplier]
	repo Repository
}

// NewService creates a supplier service.
func NewService(repo Repository, txm tx.Manager) *Service {
	base := domain.NewCatalogService[*Supplier](repo, txm, "supplier")
	svc := &Service{CatalogService: base, repo: repo}

	base.Hooks().On(domain.BeforeCreate, svc.checkUniqueName)
	base.Hooks().On(domain.BeforeUpdate, svc.checkUniqueName)
	return svc
}

func (s *Service) checkUniqueName(ctx context.Context, sup *Supplier) error {
	exists, err := s.repo.ExistsByName(ctx, sup)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("supplier", "name", sup.Name)
	}
	return nil
}

// SupplierName resolves a supplier's display name for purchase headers.
func (s *Service) SupplierName(ctx context.Context, pharmacyID, supplierID id.ID) (string, error) {
	sup, err := s.GetByID(ctx, pharmacyID, supplierID)
	if err != nil {
		return "", err
	}
	if sup.DeletionMark {
		return "", apperror.NewNotFound("supplier", supplierID.String())
	}
	return sup.Name, nil
}
