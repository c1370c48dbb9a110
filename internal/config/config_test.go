package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "Count-allOccupations-Continent.csv", cfg.CountsPath)
	assert.Equal(t, "Occupationid_firststep_group_careerarea.csv", cfg.TaxonomyPath)
	assert.Equal(t, 1024, cfg.MaxSessions)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CAREERMAP_ADDR", "127.0.0.1:9000")
	t.Setenv("CAREERMAP_COUNTS_PATH", "/data/counts.csv")
	t.Setenv("CAREERMAP_LOG_LEVEL", "debug")
	t.Setenv("CAREERMAP_MAX_SESSIONS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/data/counts.csv", cfg.CountsPath)
	assert.Equal(t, 3, cfg.MaxSessions)

	lvl, err := ParseLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CAREERMAP_MAX_SESSIONS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CAREERMAP_MAX_SESSIONS", "many")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CAREERMAP_MAX_SESSIONS", "10")
	t.Setenv("CAREERMAP_LOG_LEVEL", "loud")
	_, err = Load()
	assert.Error(t, err)
}
