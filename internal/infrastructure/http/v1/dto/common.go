// Package dto provides request and response shapes of the ledger API.
package dto

import (
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// --- Pagination ---

// ListQuery is the common query string of list endpoints.
type ListQuery struct {
	Search         string `form:"search"`
	OrderBy        string `form:"order_by"`
	IncludeDeleted bool   `form:"include_deleted"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a normalized domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{
		Search:         q.Search,
		OrderBy:        q.OrderBy,
		IncludeDeleted: q.IncludeDeleted,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}.Normalized()
}

// SearchQuery is the query string of typeahead endpoints.
type SearchQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse is the body ErrorHandler renders for every failure.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
