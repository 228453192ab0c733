package isoflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	vol := VolumeConfig{X: 64, Y: 64, Z: 64}
	// 63^3 cells at 60 fps is 15.00282 million classified per second.
	got := InfoString(60, vol, 1234, 5678)
	assert.Equal(t, "60 fps, 64x64x64 samples, 15 MVPS, 1234 triangles, 5678 particles", got)
}

func TestInfoStringFiveSignificantDigits(t *testing.T) {
	vol := VolumeConfig{X: 32, Y: 32, Z: 32}
	got := InfoString(59.94213, vol, 0, 0)
	assert.Contains(t, got, "59.942 fps")
}

func TestInfoStringAnisotropicVolume(t *testing.T) {
	vol := VolumeConfig{X: 128, Y: 64, Z: 32}
	got := InfoString(10, vol, 3, 4)
	assert.Contains(t, got, "128x64x32 samples")
	// (127*63*31)*10/1e6 = 2.48 -> 2.
	assert.Contains(t, got, "2 MVPS")
}

func TestTextRendererAtlas(t *testing.T) {
	tr := NewTextRenderer()
	require.NotNil(t, tr.AtlasImage)

	// Printable ASCII is present.
	for _, r := range "0123456789 fps,xMVPS" {
		_, ok := tr.Glyphs[r]
		assert.True(t, ok, "missing glyph %q", r)
	}

	// Glyphs map into the atlas.
	for r, g := range tr.Glyphs {
		assert.GreaterOrEqual(t, g.UVMin[0], float32(0), "glyph %q", r)
		assert.LessOrEqual(t, g.UVMax[0], float32(1), "glyph %q", r)
		assert.Less(t, g.UVMin[1], g.UVMax[1], "glyph %q", r)
	}
}

func TestTextRendererBuildVertices(t *testing.T) {
	tr := NewTextRenderer()
	items := []TextItem{{
		Text:     "ab",
		Position: [2]float32{0, 0},
		Scale:    1,
		Color:    [4]float32{1, 1, 1, 1},
	}}
	vertices := tr.BuildVertices(items, 640, 480)
	assert.Len(t, vertices, 12, "six vertices per glyph")

	// All positions stay in NDC for on-screen text.
	for _, v := range vertices {
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[0], float32(1))
	}
}

func TestTextRendererNewlineAndMeasure(t *testing.T) {
	tr := NewTextRenderer()
	w1, h1 := tr.MeasureText("abc", 1)
	w2, h2 := tr.MeasureText("abc\nd", 1)

	assert.Equal(t, w1, w2, "longest line wins")
	assert.Greater(t, h2, h1, "second line adds height")
	assert.InDelta(t, 3*7, float64(w1), 1e-6, "monospace advance")
}
