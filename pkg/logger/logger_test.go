package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "pharmaledger/internal/core/context"
)

func TestWithContext_AddsActorAndTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := &Logger{zap.New(core).Sugar()}

	actor := appctx.Actor{ActorID: uuid.New(), PharmacyID: uuid.New()}
	ctx := appctx.WithActor(context.Background(), actor)
	ctx = appctx.WithTrace(ctx, appctx.NewTrace("t-1", "r-1"))
	ctx = WithLogger(ctx, base)

	Info(ctx, "bill committed", "bill_no", "BILL-2026-000001")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "t-1", fields["trace_id"])
		assert.Equal(t, "r-1", fields["request_id"])
		assert.Equal(t, actor.PharmacyID.String(), fields["pharmacy_id"])
		assert.Equal(t, "BILL-2026-000001", fields["bill_no"])
	}
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stdout"}})
	assert.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}
