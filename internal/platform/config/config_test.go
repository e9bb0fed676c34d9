package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("numbering_service")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8085, cfg.NumberingServiceHTTPPort)
	assert.Equal(t, 10000, cfg.Numbering.MaxExpansionSize)
	assert.Equal(t, 5*time.Millisecond, cfg.Numbering.PerNumberTimeout)
	assert.True(t, cfg.Numbering.EventsEnabled)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_NUMBERING_MAX_EXPANSION_SIZE", "250")
	t.Setenv("APP_NUMBERING_EVENTS_ENABLED", "false")

	cfg, err := Load("numbering_service")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.Numbering.MaxExpansionSize)
	assert.False(t, cfg.Numbering.EventsEnabled)
}

func TestLoad_RejectsNonPositiveCap(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_NUMBERING_MAX_EXPANSION_SIZE", "0")

	_, err := Load("numbering_service")
	assert.Error(t, err)
}

func TestNumberingConfig_SaveTimeout(t *testing.T) {
	t.Run("ScalesWithCap", func(t *testing.T) {
		c := NumberingConfig{MaxExpansionSize: 10000, PerNumberTimeout: time.Millisecond, MinSaveTimeout: time.Second}
		assert.Equal(t, 10*time.Second, c.SaveTimeout())
	})

	t.Run("FlooredAtMinimum", func(t *testing.T) {
		c := NumberingConfig{MaxExpansionSize: 10, PerNumberTimeout: time.Millisecond, MinSaveTimeout: time.Second}
		assert.Equal(t, time.Second, c.SaveTimeout())
	})
}
