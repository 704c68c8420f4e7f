package customer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/phone"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/search"
	"pharmaledger/pkg/logger"
)

const (
	defaultSearchLimit = 15
	maxSearchLimit     = 100
)

// Service manages customers. It also satisfies billing.Customers.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Resolve upserts the customer owning mobile. Walk-in sales (no mobile)
// have no customer record.
func (s *Service) Resolve(ctx context.Context, pharmacyID id.ID, name, mobile string) (*id.ID, string, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, "", nil
	}
	normalized, err := phone.Normalize(mobile)
	if err != nil {
		return nil, "", apperror.NewFieldValidation("customer_mobile", "invalid mobile number").
			WithDetail("value", mobile)
	}

	actorID := id.Nil()
	if a, ok := appctx.GetActor(ctx); ok {
		actorID = a.ActorID
	}
	c := NewCustomer(pharmacyID, actorID, name, normalized)
	now := s.now().UTC()
	c.LastBillAt = &now

	stored, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return nil, "", err
	}
	return &stored.ID, normalized, nil
}

// CreateInput is the body of a manually created customer.
type CreateInput struct {
	Name    string
	Mobile  string
	Email   string
	Address string
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name    *string
	Mobile  *string
	Email   *string
	Address *string
}

func normalizeMobile(mobile string) (string, error) {
	normalized, err := phone.Normalize(strings.TrimSpace(mobile))
	if err != nil {
		return "", apperror.NewFieldValidation("mobile", "invalid mobile number").WithDetail("value", mobile)
	}
	return normalized, nil
}

// Create adds a customer outside billing. The mobile must be new to the pharmacy.
func (s *Service) Create(ctx context.Context, actor appctx.Actor, in CreateInput) (*Customer, error) {
	if strings.TrimSpace(in.Mobile) == "" {
		return nil, apperror.NewFieldValidation("mobile", "mobile is required")
	}
	mobile, err := normalizeMobile(in.Mobile)
	if err != nil {
		return nil, err
	}
	c := NewCustomer(actor.PharmacyID, actor.ActorID, in.Name, mobile)
	c.Email = in.Email
	c.Address = strings.TrimSpace(in.Address)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "customer created", "customer_id", c.ID)
	return c, nil
}

// Update edits a customer's contact fields. Debt is only changed by bills
// and ClearDebt.
func (s *Service) Update(ctx context.Context, actor appctx.Actor, customerID id.ID, in UpdateInput) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, actor.PharmacyID, customerID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Mobile != nil {
		mobile, err := normalizeMobile(*in.Mobile)
		if err != nil {
			return nil, err
		}
		c.Mobile = mobile
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Touch(actor.ActorID)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a customer without outstanding debt.
func (s *Service) Delete(ctx context.Context, actor appctx.Actor, customerID id.ID) error {
	c, err := s.repo.GetByID(ctx, actor.PharmacyID, customerID)
	if err != nil {
		return err
	}
	if c.TotalDebt.IsPositive() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "customer has outstanding debt").
			WithDetail("total_debt", c.TotalDebt.StringFixed(2))
	}
	if err := s.repo.Delete(ctx, actor.PharmacyID, customerID); err != nil {
		return err
	}
	logger.Info(ctx, "customer deleted", "customer_id", customerID)
	return nil
}

// AdjustDebt changes a customer's running debt.
func (s *Service) AdjustDebt(ctx context.Context, pharmacyID, customerID id.ID, delta decimal.Decimal) error {
	return s.repo.AdjustDebt(ctx, pharmacyID, customerID, delta)
}

// ClearDebt writes off a customer's debt. Admin only.
func (s *Service) ClearDebt(ctx context.Context, actor appctx.Actor, customerID id.ID) (*Customer, error) {
	if !actor.IsAdmin() {
		return nil, apperror.NewForbidden("only admins can clear customer debt")
	}
	cleared, err := s.repo.ClearDebt(ctx, actor.PharmacyID, customerID)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "customer debt cleared", "customer_id", customerID, "amount", cleared.String())
	return s.repo.GetByID(ctx, actor.PharmacyID, customerID)
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, pharmacyID, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, pharmacyID, customerID)
}

// List returns a page of customers.
func (s *Service) List(ctx context.Context, pharmacyID id.ID, filter domain.ListFilter) (domain.ListResult[Customer], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, pharmacyID, filter.Normalized())
}

// Search ranks customers by name, then mobile number.
func (s *Service) Search(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewFieldValidation("q", "query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	candidates, err := s.repo.SearchCandidates(ctx, pharmacyID, query, limit*10)
	if err != nil {
		return nil, err
	}
	return search.Rank(query, candidates, func(c Customer) search.Fields {
		return search.Fields{Name: c.Name, Secondary: c.Mobile}
	}, limit), nil
}
