package config

import (
	"testing"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.LockRetryBackoff)
	assert.Equal(t, domain.SinkBackendNone, cfg.SinkBackend)
	assert.Equal(t, domain.SinkModeAsync, cfg.SinkMode)
	assert.Equal(t, 1024, cfg.SinkBuffer)
	assert.Equal(t, "ledger:transactions", cfg.SinkStream)
	assert.Zero(t, cfg.SinkStreamMaxLen)
	assert.Equal(t, domain.DirectoryBackendMemory, cfg.DirectoryBackend)
	assert.Equal(t, time.Minute, cfg.ReconciliationInterval)
	assert.Equal(t, 1000, cfg.AuditCapacity)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_PrefixedAliases(t *testing.T) {
	t.Setenv("WALLET_JWT_SECRET", testSecret)
	t.Setenv("WALLET_LOCK_TIMEOUT", "750ms")
	t.Setenv("WALLET_SINK_BACKEND", "REDIS")
	t.Setenv("WALLET_REDIS_URL", "redis://localhost:6379/1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, domain.SinkBackendRedis, cfg.SinkBackend)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
}

func TestLoad_SinkStreamMaxLen(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SINK_STREAM_MAXLEN", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cfg.SinkStreamMaxLen)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad lock timeout", map[string]string{"JWT_SECRET": testSecret, "LOCK_TIMEOUT": "soon"}},
		{"zero lock timeout", map[string]string{"JWT_SECRET": testSecret, "LOCK_TIMEOUT": "0s"}},
		{"redis sink without url", map[string]string{"JWT_SECRET": testSecret, "SINK_BACKEND": "redis"}},
		{"postgres sink without url", map[string]string{"JWT_SECRET": testSecret, "SINK_BACKEND": "postgres"}},
		{"unknown sink", map[string]string{"JWT_SECRET": testSecret, "SINK_BACKEND": "kafka"}},
		{"unknown sink mode", map[string]string{"JWT_SECRET": testSecret, "SINK_MODE": "eventually"}},
		{"negative stream maxlen", map[string]string{"JWT_SECRET": testSecret, "SINK_STREAM_MAXLEN": "-1"}},
		{"postgres directory without url", map[string]string{"JWT_SECRET": testSecret, "DIRECTORY_BACKEND": "postgres"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
