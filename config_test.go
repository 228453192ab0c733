package isoflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Volume.X)
	assert.Equal(t, 64, cfg.Volume.Y)
	assert.Equal(t, 64, cfg.Volume.Z)
	assert.InDelta(t, 0.001, float64(cfg.Surface.Iso), 1e-9)
	assert.InDelta(t, 13.0, cfg.Surface.MorphPeriod, 1e-9)
	assert.Equal(t, 4000, cfg.Particles.Flow)
	assert.Equal(t, 500, cfg.Particles.InitialThreshold)
	assert.False(t, cfg.Debug)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("volume:\n  x: 128\n  y: 128\n  z: 128\nparticles:\n  flow: 9000\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Overridden values take effect, untouched ones keep defaults.
	assert.Equal(t, 128, cfg.Volume.X)
	assert.Equal(t, 9000, cfg.Particles.Flow)
	assert.Equal(t, 500, cfg.Particles.InitialThreshold)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsSmallVolume(t *testing.T) {
	for _, dim := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"x", func(c *Config) { c.Volume.X = 3 }},
		{"y", func(c *Config) { c.Volume.Y = 2 }},
		{"z", func(c *Config) { c.Volume.Z = 0 }},
	} {
		cfg, err := DefaultConfig()
		require.NoError(t, err)
		dim.mutate(cfg)
		assert.Error(t, cfg.Validate(), "axis %s", dim.name)
	}
}

func TestValidateRejectsBadParameters(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	cfg.Particles.Flow = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = DefaultConfig()
	cfg.Surface.MorphPeriod = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = DefaultConfig()
	cfg.Window.Width = -1
	assert.Error(t, cfg.Validate())
}
