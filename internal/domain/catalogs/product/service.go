package product

import (
	"context"
	"strings"
	"unicode/utf8"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/search"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	minQueryLength     = 2
)

// Service provides product CRUD on top of domain.CatalogService plus ranked
// search. It also feeds per-product thresholds to inventory alerts.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a product service.
func NewService(repo Repository, txm tx.Manager) *Service {
	base := domain.NewCatalogService[*Product](repo, txm, "product")
	svc := &Service{CatalogService: base, repo: repo}

	base.Hooks().On(domain.BeforeCreate, svc.checkUniqueName)
	base.Hooks().On(domain.BeforeUpdate, svc.checkUniqueName)
	return svc
}

func (s *Service) checkUniqueName(ctx context.Context, p *Product) error {
	exists, err := s.repo.ExistsByKey(ctx, p)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("product", "name", p.Name)
	}
	return nil
}

// Search ranks products by name, then salt composition.
func (s *Service) Search(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, apperror.NewFieldValidation("q", "query must be at least 2 characters")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	candidates, err := s.repo.SearchCandidates(ctx, pharmacyID, query, limit)
	if err != nil {
		return nil, err
	}
	return search.Rank(query, candidates, func(p Product) search.Fields {
		return search.Fields{Name: p.Name, Secondary: p.SaltComposition}
	}, limit), nil
}

// LowStockThresholds implements inventory.ThresholdSource.
func (s *Service) LowStockThresholds(ctx context.Context, pharmacyID id.ID) (map[string]int64, error) {
	return s.repo.Thresholds(ctx, pharmacyID)
}
