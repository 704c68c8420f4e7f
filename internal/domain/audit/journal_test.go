package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
)

type recorderFunc func(ctx context.Context, e Entry) error

func (f recorderFunc) Record(ctx context.Context, e Entry) error { return f(ctx, e) }

type publisherFunc func(ctx context.Context, e Event) error

func (f publisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

func TestJournal_NilIsNoop(t *testing.T) {
	var j *Journal
	assert.NoError(t, j.Write(context.Background(), Entry{}, Event{}))
	assert.NoError(t, NewJournal(nil, nil).Write(context.Background(), Entry{}, Event{}))
}

func TestJournal_FillsEventPharmacy(t *testing.T) {
	pharmacy := id.New()
	var got Event
	j := NewJournal(nil, publisherFunc(func(_ context.Context, e Event) error {
		got = e
		return nil
	}))

	require.NoError(t, j.Write(context.Background(),
		Entry{PharmacyID: pharmacy, Action: ActionCreate},
		Event{EventType: "bill.committed"}))
	assert.Equal(t, pharmacy, got.PharmacyID)
}

func TestJournal_StopsOnRecorderError(t *testing.T) {
	published := false
	j := NewJournal(
		recorderFunc(func(context.Context, Entry) error { return errors.New("disk full") }),
		publisherFunc(func(context.Context, Event) error { published = true; return nil }),
	)

	err := j.Write(context.Background(), Entry{}, Event{})
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, published)
}
