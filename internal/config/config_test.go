package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8090", c.BaseURL)
	assert.Equal(t, "dashsync.db", c.DatabasePath)
	assert.Equal(t, 5*time.Minute, c.StaleAfter)
	assert.Equal(t, 15*time.Second, c.PingInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, c.ReplayBaseDelay)
	assert.Equal(t, uint64(4), c.ReplayMaxRetries)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8090", cfg.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfter)
}
