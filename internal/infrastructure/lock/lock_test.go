package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_RunExclusive(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan bool)

	go func() {
		ran, err := l.RunExclusive(ctx, "outbox", time.Second, func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
		assert.NoError(t, err)
		done <- ran
	}()

	<-entered
	ran, err := l.RunExclusive(ctx, "outbox", time.Second, func(context.Context) error {
		t.Fatal("second holder must not run")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)

	ran, err = l.RunExclusive(ctx, "alerts", time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran, "different lock names do not block each other")

	close(release)
	assert.True(t, <-done)
}

func TestLocal_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	ran, err := NewLocal().RunExclusive(context.Background(), "job", time.Second, func(context.Context) error {
		return boom
	})
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
}
