package inventory

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/search"
	"pharmaledger/pkg/logger"
)

const (
	DefaultSearchLimit = 15
	MaxSearchLimit     = 100

	// candidateFactor bounds how many storage rows feed the ranker per result.
	candidateFactor = 10

	DefaultLowStockThreshold int64 = 10
	DefaultExpiryDays              = 90
)

// Exporter renders batches into a downloadable document.
type Exporter interface {
	ContentType() string
	FileExtension() string
	WriteBatches(w io.Writer, batches []Batch) error
}

// ThresholdSource supplies per-product low-stock thresholds keyed by
// product key.
type ThresholdSource interface {
	LowStockThresholds(ctx context.Context, pharmacyID id.ID) (map[string]int64, error)
}

// Service is the read side of the ledger plus explicit deletion.
type Service struct {
	ledger     Ledger
	exporter   Exporter
	thresholds ThresholdSource
	now        func() time.Time
}

// NewService creates an inventory service. exporter may be nil.
func NewService(ledger Ledger, exporter Exporter) *Service {
	return &Service{ledger: ledger, exporter: exporter, now: time.Now}
}

// WithThresholds makes Alerts honour per-product thresholds when the caller
// does not pass one.
func (s *Service) WithThresholds(src ThresholdSource) *Service {
	s.thresholds = src
	return s
}

// Search ranks in-stock batches by name, then composition.
func (s *Service) Search(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]Batch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewFieldValidation("q", "query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	candidates, err := s.ledger.SearchCandidates(ctx, pharmacyID, query, limit*candidateFactor)
	if err != nil {
		return nil, err
	}

	return search.Rank(query, candidates, func(b Batch) search.Fields {
		return search.Fields{Name: b.ProductName, Secondary: b.SaltComposition}
	}, limit), nil
}

// AlertOptions configures Alerts. Zero values take defaults.
type AlertOptions struct {
	LowStockThreshold int64
	ExpiryDays        int
}

// Alerts groups batches needing attention.
type Alerts struct {
	LowStock          []Batch `json:"low_stock"`
	ExpiringSoon      []Batch `json:"expiring_soon"`
	Expired           []Batch `json:"expired"`
	LowStockThreshold int64   `json:"low_stock_threshold"`
	ExpiryDays        int     `json:"expiry_days"`
}

// Total counts all alerting batches.
func (a Alerts) Total() int {
	return len(a.LowStock) + len(a.ExpiringSoon) + len(a.Expired)
}

// Alerts lists low-stock, expiring and expired batches. An explicit
// LowStockThreshold applies to every batch; otherwise each product's own
// threshold wins over the default.
func (s *Service) Alerts(ctx context.Context, pharmacyID id.ID, opts AlertOptions) (Alerts, error) {
	var perProduct map[string]int64
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = DefaultLowStockThreshold
		if s.thresholds != nil {
			m, err := s.thresholds.LowStockThresholds(ctx, pharmacyID)
			if err != nil {
				return Alerts{}, err
			}
			perProduct = m
		}
	}
	if opts.ExpiryDays <= 0 {
		opts.ExpiryDays = DefaultExpiryDays
	}

	ceiling := opts.LowStockThreshold
	for _, t := range perProduct {
		ceiling = max(ceiling, t)
	}
	low, err := s.ledger.ListLowStock(ctx, pharmacyID, ceiling)
	if err != nil {
		return Alerts{}, err
	}
	if len(perProduct) > 0 {
		low = slices.DeleteFunc(low, func(b Batch) bool {
			limit, ok := perProduct[b.ProductKey]
			if !ok {
				limit = opts.LowStockThreshold
			}
			return b.AvailableQuantity > limit
		})
	}

	now := s.now().UTC()
	expiring, err := s.ledger.ListExpiring(ctx, pharmacyID, now.AddDate(0, 0, opts.ExpiryDays))
	if err != nil {
		return Alerts{}, err
	}

	out := Alerts{
		LowStock:          low,
		ExpiringSoon:      []Batch{},
		Expired:           []Batch{},
		LowStockThreshold: opts.LowStockThreshold,
		ExpiryDays:        opts.ExpiryDays,
	}
	for _, b := range expiring {
		if b.IsExpired(now) {
			out.Expired = append(out.Expired, b)
		} else {
			out.ExpiringSoon = append(out.ExpiringSoon, b)
		}
	}
	return out, nil
}

// List returns a page of batches.
func (s *Service) List(ctx context.Context, pharmacyID id.ID, filter domain.ListFilter) (domain.ListResult[Batch], error) {
	return s.ledger.List(ctx, pharmacyID, filter.Normalized())
}

// Get returns one batch.
func (s *Service) Get(ctx context.Context, pharmacyID, batchID id.ID) (*Batch, error) {
	return s.ledger.GetByID(ctx, pharmacyID, batchID)
}

// Delete removes a batch explicitly.
func (s *Service) Delete(ctx context.Context, pharmacyID, batchID id.ID) error {
	b, err := s.ledger.GetByID(ctx, pharmacyID, batchID)
	if err != nil {
		return err
	}
	if err := s.ledger.Delete(ctx, pharmacyID, batchID); err != nil {
		return err
	}
	logger.Info(ctx, "inventory batch deleted",
		"inventory_id", batchID,
		"product_name", b.ProductName,
		"batch_no", b.BatchNo,
		"available_quantity", b.AvailableQuantity,
	)
	return nil
}

// Export writes every batch of the pharmacy through the configured exporter.
func (s *Service) Export(ctx context.Context, pharmacyID id.ID, w io.Writer) error {
	if s.exporter == nil {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "export is not configured")
	}

	var all []Batch
	filter := domain.ListFilter{Limit: domain.MaxListLimit, OrderBy: "product_name"}
	for {
		page, err := s.ledger.List(ctx, pharmacyID, filter)
		if err != nil {
			return err
		}
		all = append(all, page.Items...)
		if len(page.Items) < filter.Limit || int64(len(all)) >= page.TotalCount {
			break
		}
		filter.Offset += filter.Limit
	}
	return s.exporter.WriteBatches(w, all)
}

// Exporter returns the configured exporter, or nil.
func (s *Service) Exporter() Exporter {
	return s.exporter
}
