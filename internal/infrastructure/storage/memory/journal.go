package memory

import (
	"context"

	"pharmaledger/internal/domain/audit"
)

// Journal keeps audit entries and outbox events in the store.
type Journal struct {
	s *Store
}

var (
	_ audit.Recorder  = (*Journal)(nil)
	_ audit.Publisher = (*Journal)(nil)
)

// Record implements audit.Recorder.
func (j *Journal) Record(ctx context.Context, e audit.Entry) error {
	defer j.s.lock(ctx)()
	j.s.state.audit = append(j.s.state.audit, e)
	return nil
}

// Publish implements audit.Publisher.
func (j *Journal) Publish(ctx context.Context, e audit.Event) error {
	defer j.s.lock(ctx)()
	j.s.state.events = append(j.s.state.events, e)
	return nil
}

// Entries returns recorded audit entries.
func (j *Journal) Entries() []audit.Entry {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	return append([]audit.Entry(nil), j.s.state.audit...)
}

// Events returns published events in order.
func (j *Journal) Events() []audit.Event {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	return append([]audit.Event(nil), j.s.state.events...)
}
