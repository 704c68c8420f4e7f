// Package context carries request-scoped identity and tracing values.
package context

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Role names understood by the ledger.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
)

// Actor is the authenticated principal acting on one pharmacy's ledger.
// Core services receive it explicitly; the context copy exists for logging
// and for handlers.
type Actor struct {
	ActorID    uuid.UUID
	PharmacyID uuid.UUID
	Roles      []string
}

// HasRole reports whether the actor carries role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// IsAdmin reports whether the actor may run administrative operations.
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// Valid reports whether both identifiers are set.
func (a Actor) Valid() bool {
	return a.ActorID != uuid.Nil && a.PharmacyID != uuid.Nil
}

type actorContextKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// GetActor returns the actor stored in ctx.
func GetActor(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	return a, ok
}
