package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", BackendMemory)
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("LOW_STOCK_THRESHOLD", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, int64(5), cfg.LowStockThreshold)
	assert.True(t, cfg.IdempotencyEnabled)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE_BACKEND": BackendPostgres, "DATABASE_URL": "", "JWT_SECRET": "x"}},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "sqlite", "JWT_SECRET": "x"}},
		{"production without secret", map[string]string{"STORAGE_BACKEND": BackendMemory, "APP_ENV": "production", "JWT_SECRET": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, getEnvInt("X_INT", 7))
	assert.Equal(t, time.Minute, getEnvDuration("X_DUR", time.Minute))
	assert.True(t, getEnvBool("X_BOOL", true))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PL_DOTENV_CHECK=loaded\n"), 0o600))
	t.Setenv("PL_DOTENV_CHECK", "")
	require.NoError(t, os.Unsetenv("PL_DOTENV_CHECK"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("PL_DOTENV_CHECK"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
