package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_Memory(t *testing.T) {
	cfg := Config{StorageBackend: BackendMemory, DefaultPhoneRegion: "IN", IdempotencyEnabled: true}

	b, err := OpenBackend(context.Background(), cfg, OpenOptions{Migrate: true})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, BackendMemory, b.Kind)
	assert.Nil(t, b.Pool)
	assert.Nil(t, b.Idempotency)
	assert.NotNil(t, b.Services.Bills)
	assert.NotNil(t, b.Services.Purchases)
	assert.NotNil(t, b.Services.Products)
	assert.NotNil(t, b.Memory)

	rc := b.RouterConfig(nil)
	assert.Nil(t, rc.Idempotency)
	assert.Contains(t, rc.HealthChecks, "storage")
}

func TestOpenBackend_Unknown(t *testing.T) {
	_, err := OpenBackend(context.Background(), Config{StorageBackend: "sqlite"}, OpenOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}
