package tui

import (
	"path/filepath"
	"testing"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSessionSettings(t *testing.T) {
	t.Setenv("LECTERN_CONFIG_PATH", filepath.Join(t.TempDir(), "config.yaml"))

	// Writes the default file
	_, err := config.Load()
	require.NoError(t, err)

	saveSessionSettings(0.35, 1.5)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.35, cfg.Player.InitialVolume)
	assert.Equal(t, 1.5, cfg.Player.DefaultSpeed)
}
