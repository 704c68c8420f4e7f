package dto

import (
	"pharmaledger/internal/domain/inventory"
)

// InventorySearchResponse is the typeahead result of GET /inventory/search.
type InventorySearchResponse struct {
	Inventory []inventory.Batch `json:"inventory"`
	Count     int               `json:"count"`
}

// AlertsQuery tunes GET /inventory/alerts. Zero values take service defaults.
type AlertsQuery struct {
	LowStockThreshold int64 `form:"low_stock_threshold" binding:"omitempty,min=0"`
	ExpiryDays        int   `form:"expiry_days" binding:"omitempty,min=0,max=3650"`
}

// ToOptions converts the query into service options.
func (q AlertsQuery) ToOptions() inventory.AlertOptions {
	return inventory.AlertOptions{
		LowStockThreshold: q.LowStockThreshold,
		ExpiryDays:        q.ExpiryDays,
	}
}

// AlertsResponse is inventory.Alerts with its total.
type AlertsResponse struct {
	inventory.Alerts
	Total int `json:"total"`
}
