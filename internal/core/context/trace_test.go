package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTrace(t *testing.T) {
	kept := NewTrace("t-1", "r-1")
	assert.Equal(t, Trace{TraceID: "t-1", RequestID: "r-1"}, kept)

	generated := NewTrace("", "")
	assert.NotEmpty(t, generated.TraceID)
	assert.NotEmpty(t, generated.RequestID)
	assert.NotEqual(t, generated.TraceID, generated.RequestID)
}

func TestTraceRoundTrip(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))

	ctx := WithTrace(context.Background(), NewTrace("t-1", "r-1"))
	got, ok := GetTrace(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t-1", got.TraceID)
	assert.Equal(t, "r-1", RequestID(ctx))
}
