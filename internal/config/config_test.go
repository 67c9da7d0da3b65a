package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "1323", cfg.Port)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, "data", cfg.ArchiveDir)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 0, cfg.DefaultLinkLimit)
}

func TestNewConfigEnvOverride(t *testing.T) {
	t.Setenv("LINKVAULT_FETCH_TIMEOUT_SEC", "3")
	t.Setenv("LINKVAULT_ARCHIVE_DIR", "/var/lib/linkvault")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.FetchTimeout())
	assert.Equal(t, "/var/lib/linkvault", cfg.ArchiveDir)
}

func TestNewConfigValidation(t *testing.T) {
	t.Run("bad ssl mode", func(t *testing.T) {
		t.Setenv("LINKVAULT_DB_SSL_MODE", "bogus")
		_, err := NewConfig()
		assert.Error(t, err)
	})

	t.Run("bad fetch timeout", func(t *testing.T) {
		t.Setenv("LINKVAULT_FETCH_TIMEOUT_SEC", "0")
		_, err := NewConfig()
		assert.Error(t, err)
	})
}
