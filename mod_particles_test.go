package isoflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextThresholdHoldsInsideBand(t *testing.T) {
	// 4000 emitted over one second hits the flow target exactly.
	assert.Equal(t, 500, nextThreshold(500, 4000, 1.0, 4000))
	assert.Equal(t, 500, nextThreshold(500, 3950, 1.0, 4000))
	assert.Equal(t, 500, nextThreshold(500, 4050, 1.0, 4000))
}

func TestNextThresholdHalvesWhenStarved(t *testing.T) {
	// Too few particles: the modulus halves so more triangles emit.
	assert.Equal(t, 250, nextThreshold(500, 100, 1.0, 4000))
	assert.Equal(t, 1, nextThreshold(1, 0, 1.0, 4000))
}

func TestNextThresholdGrowsWhenFlooded(t *testing.T) {
	got := nextThreshold(500, 100000, 1.0, 4000)
	assert.InDelta(t, 5050, got, 1, "threshold should grow about tenfold")
	// Growth clamps at the ceiling.
	assert.Equal(t, thresholdMax, nextThreshold(thresholdMax, 1000000, 1.0, 4000))
}

func TestNextThresholdUsesRatePerSecond(t *testing.T) {
	// 50 particles in 10ms is 5000/s, above the band.
	assert.Greater(t, nextThreshold(500, 50, 0.01, 4000), 500)
	// The same 50 over a full second is starved.
	assert.Equal(t, 250, nextThreshold(500, 50, 1.0, 4000))
}

func TestNextThresholdTinyDt(t *testing.T) {
	// dt is floored so a stalled clock cannot divide by zero.
	got := nextThreshold(500, 0, 0, 4000)
	assert.Equal(t, 250, got)
}
