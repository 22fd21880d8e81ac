package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DATABASE_URL", "DATA_DIR", "KAFKA_BROKERS", "TIMEZONE", "SESSION_TTL", "DISABLE_AUTH"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, DefaultDataDir(), cfg.DataDir)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.DisableAuth)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.OIDCEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DISABLE_AUTH", "true")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("OIDC_ISSUER", "https://id.example.com")
	t.Setenv("OIDC_CLIENT_ID", "hydration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.DisableAuth)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.True(t, cfg.OIDCEnabled())
}

func TestLoadBadTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("DISABLE_AUTH", "maybe")
	t.Setenv("TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.DisableAuth)
}
