// Package audit defines how ledger mutations are journaled: an audit entry
// for operators and a domain event for downstream consumers. Both are written
// inside the transaction of the mutation they describe.
package audit

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionMarkPaid Action = "mark_paid"
)

// Entry is one audit log record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	PharmacyID id.ID
	ActorID    id.ID
	Action     Action
	// Changes is marshalled to JSON by the recorder.
	Changes any
}

// Event is one message for the transactional outbox.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	PharmacyID    id.ID
	EventType     string
	Payload       any
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Publisher enqueues domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Journal writes audit entries and events. A nil Journal, or one with nil
// parts, skips what is not configured.
type Journal struct {
	recorder  Recorder
	publisher Publisher
}

// NewJournal creates a journal. Either argument may be nil.
func NewJournal(r Recorder, p Publisher) *Journal {
	return &Journal{recorder: r, publisher: p}
}

// Write records the entry and publishes the event of one mutation.
func (j *Journal) Write(ctx context.Context, e Entry, ev Event) error {
	if j == nil {
		return nil
	}
	if j.recorder != nil {
		if err := j.recorder.Record(ctx, e); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
	}
	if j.publisher != nil {
		if ev.PharmacyID == id.Nil() {
			ev.PharmacyID = e.PharmacyID
		}
		if err := j.publisher.Publish(ctx, ev); err != nil {
			return fmt.Errorf("publish %s: %w", ev.EventType, err)
		}
	}
	return nil
}
