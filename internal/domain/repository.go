// Package domain provides the contracts shared by ledger services.
package domain

import (
	"context"

	"pharmaledger/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search narrows results by name (ILIKE) where the repository supports it
	Search string

	// IncludeDeleted includes soft-deleted catalog records
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g. "product_name", "-created_at")
	OrderBy string

	Limit  int
	Offset int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Normalized clamps pagination to sane bounds.
func (f ListFilter) Normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Catalogs ---

// CatalogEntity is a pharmacy-scoped reference record (supplier, customer).
type CatalogEntity interface {
	GetID() id.ID
	Validate() error
}

// CatalogRepository defines CRUD operations for catalog entities.
// Every read is scoped to one pharmacy.
type CatalogRepository[T CatalogEntity] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, pharmacyID, entityID id.ID) (T, error)
	Update(ctx context.Context, entity T) error
	SetDeletionMark(ctx context.Context, pharmacyID, entityID id.ID, marked bool) error
	List(ctx context.Context, pharmacyID id.ID, filter ListFilter) (ListResult[T], error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
