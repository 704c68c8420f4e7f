// Package entity holds the fields shared by every persisted ledger record.
package entity

import (
	"time"

	"pharmaledger/internal/core/id"
)

// BaseEntity is embedded by batches, purchases, bills, customers and suppliers.
// Every record belongs to exactly one pharmacy.
type BaseEntity struct {
	ID         id.ID     `db:"id" json:"id"`
	PharmacyID id.ID     `db:"pharmacy_id" json:"pharmacy_id"`
	CreatedBy  id.ID     `db:"created_by" json:"created_by"`
	UpdatedBy  id.ID     `db:"updated_by" json:"updated_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// NewBaseEntity creates a BaseEntity owned by pharmacyID and stamped by actorID.
func NewBaseEntity(pharmacyID, actorID id.ID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:         id.New(),
		PharmacyID: pharmacyID,
		CreatedBy:  actorID,
		UpdatedBy:  actorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch records a modification by actorID.
func (b *BaseEntity) Touch(actorID id.ID) {
	b.UpdatedBy = actorID
	b.UpdatedAt = time.Now().UTC()
}

// GetID returns the primary key.
func (b *BaseEntity) GetID() id.ID { return b.ID }

// BelongsTo reports whether the record is owned by pharmacyID.
func (b *BaseEntity) BelongsTo(pharmacyID id.ID) bool {
	return b.PharmacyID == pharmacyID
}
