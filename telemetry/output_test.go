package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// A nil manager swallows writes.
	assert.NoError(t, om.WriteFrame(FrameStats{}))
	assert.NoError(t, om.WriteConfig(struct{}{}))
	assert.NoError(t, om.Close())
	assert.Equal(t, "", om.Dir())
}

func TestWriteFrameHeaderOnce(t *testing.T) {
	om, err := NewOutputManager(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, om)

	require.NoError(t, om.WriteFrame(FrameStats{Time: 1, FPS: 60, Triangles: 300, Particles: 42, Emitted: 7, Threshold: 500}))
	require.NoError(t, om.WriteFrame(FrameStats{Time: 2, FPS: 59, Triangles: 330, Particles: 50, Emitted: 9, Threshold: 250}))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(om.Dir(), "frames.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "one header plus two rows")
	assert.Equal(t, "time,fps,triangles,particles,emitted,threshold", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,60,300,42,7,500"))
}

func TestRunDirectoriesAreUnique(t *testing.T) {
	base := t.TempDir()
	a, err := NewOutputManager(base)
	require.NoError(t, err)
	b, err := NewOutputManager(base)
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	assert.NotEqual(t, a.Dir(), b.Dir())
}

func TestWriteConfigSnapshot(t *testing.T) {
	om, err := NewOutputManager(t.TempDir())
	require.NoError(t, err)
	defer om.Close()

	cfg := map[string]any{"volume": map[string]int{"x": 64}}
	require.NoError(t, om.WriteConfig(cfg))

	data, err := os.ReadFile(filepath.Join(om.Dir(), "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "x: 64")
}
