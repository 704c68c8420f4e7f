package inventory

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/pkg/logger"
)

const (
	AlertsAggregate = "inventory"
	EventAlerts     = "inventory.alerts"
)

// PharmacyLister enumerates pharmacies that hold stock.
type PharmacyLister interface {
	Pharmacies(ctx context.Context) ([]id.ID, error)
}

// AlertSummary is the payload of an inventory.alerts event.
type AlertSummary struct {
	LowStock     int     `json:"low_stock"`
	ExpiringSoon int     `json:"expiring_soon"`
	Expired      int     `json:"expired"`
	BatchIDs     []id.ID `json:"batch_ids"`
}

func summarize(a Alerts) AlertSummary {
	s := AlertSummary{
		LowStock:     len(a.LowStock),
		ExpiringSoon: len(a.ExpiringSoon),
		Expired:      len(a.Expired),
	}
	for _, group := range [][]Batch{a.LowStock, a.ExpiringSoon, a.Expired} {
		for _, b := range group {
			s.BatchIDs = append(s.BatchIDs, b.ID)
		}
	}
	return s
}

// Sweeper computes alerts for every pharmacy and publishes one event per
// pharmacy that has any.
type Sweeper struct {
	service    *Service
	pharmacies PharmacyLister
	txManager  tx.Manager
	publisher  audit.Publisher
	opts       AlertOptions
}

// NewSweeper creates a sweeper. publisher may be nil to only log.
func NewSweeper(service *Service, pharmacies PharmacyLister, txm tx.Manager, publisher audit.Publisher, opts AlertOptions) *Sweeper {
	return &Sweeper{
		service:    service,
		pharmacies: pharmacies,
		txManager:  txm,
		publisher:  publisher,
		opts:       opts,
	}
}

// Sweep returns how many pharmacies had alerts. A failing pharmacy is logged
// and skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.pharmacies.Pharmacies(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pharmacies: %w", err)
	}

	alerted := 0
	for _, pharmacyID := range ids {
		if err := ctx.Err(); err != nil {
			return alerted, err
		}

		alerts, err := s.service.Alerts(ctx, pharmacyID, s.opts)
		if err != nil {
			logger.Error(ctx, "alert sweep failed", "pharmacy_id", pharmacyID, "error", err)
			continue
		}
		if alerts.Total() == 0 {
			continue
		}
		alerted++

		summary := summarize(alerts)
		logger.Warn(ctx, "inventory alerts",
			"pharmacy_id", pharmacyID,
			"low_stock", summary.LowStock,
			"expiring_soon", summary.ExpiringSoon,
			"expired", summary.Expired,
		)

		if s.publisher == nil {
			continue
		}
		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.publisher.Publish(ctx, audit.Event{
				AggregateType: AlertsAggregate,
				AggregateID:   pharmacyID,
				PharmacyID:    pharmacyID,
				EventType:     EventAlerts,
				Payload:       summary,
			})
		})
		if err != nil {
			logger.Error(ctx, "publish inventory alerts", "pharmacy_id", pharmacyID, "error", err)
		}
	}
	return alerted, nil
}
