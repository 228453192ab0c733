package hipy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPyramidLayoutSingleCell(t *testing.T) {
	levels := pyramidLayout(1)
	require.Len(t, levels, 1)
	assert.Equal(t, pyramidLevel{Off: 0, Len: 1}, levels[0])
	assert.Equal(t, uint32(1), pyramidElements(levels))
}

func TestPyramidLayoutPadsToPowerOfFour(t *testing.T) {
	levels := pyramidLayout(27)
	// 27 cells pad to 64, then 16, 4, 1.
	require.Len(t, levels, 4)
	assert.Equal(t, uint32(64), levels[0].Len)
	assert.Equal(t, uint32(16), levels[1].Len)
	assert.Equal(t, uint32(4), levels[2].Len)
	assert.Equal(t, uint32(1), levels[3].Len)
}

func TestPyramidLayoutContiguous(t *testing.T) {
	for _, cells := range []uint32{1, 2, 63, 64, 65, 250047} {
		levels := pyramidLayout(cells)
		require.NotEmpty(t, levels, "cells=%d", cells)
		assert.GreaterOrEqual(t, levels[0].Len, cells)

		off := uint32(0)
		for i, lvl := range levels {
			assert.Equal(t, off, lvl.Off, "cells=%d level=%d", cells, i)
			if i > 0 {
				assert.Equal(t, levels[i-1].Len/reduceFanIn, lvl.Len)
			}
			off += lvl.Len
		}
		last := levels[len(levels)-1]
		assert.Equal(t, uint32(1), last.Len)
		assert.Equal(t, off, pyramidElements(levels))
	}
}

func TestPyramidLayoutEmpty(t *testing.T) {
	assert.Nil(t, pyramidLayout(0))
	assert.Equal(t, uint32(0), pyramidElements(nil))
}

func TestPyramidLevelsFitExtractShader(t *testing.T) {
	// A 255^3 grid is far beyond the demo's sizes and must still fit
	// the fixed level table.
	levels := pyramidLayout(255 * 255 * 255)
	assert.LessOrEqual(t, len(levels), maxLevels)
}

func TestDispatchSize1D(t *testing.T) {
	assert.Equal(t, uint32(1), dispatchSize1D(1))
	assert.Equal(t, uint32(1), dispatchSize1D(256))
	assert.Equal(t, uint32(2), dispatchSize1D(257))
	assert.Equal(t, uint32(4), dispatchSize1D(1024))
}

func TestVertexBufferSize(t *testing.T) {
	assert.Equal(t, uint64(0), VertexBufferSize(0))
	assert.Equal(t, uint64(3*SurfaceVertexStride), VertexBufferSize(3))
}
