package isoflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeSystemAdvances(t *testing.T) {
	tm := &Time{Now: time.Now().Add(-100 * time.Millisecond), Period: 0}
	timeSystem(tm)

	assert.InDelta(t, 0.1, tm.Dt, 0.05)
	assert.InDelta(t, tm.Dt, tm.T, 1e-9)
	assert.InDelta(t, tm.Dt, tm.Elapsed, 1e-9)
}

func TestTimeSystemWrapsAtPeriod(t *testing.T) {
	tm := &Time{Now: time.Now().Add(-50 * time.Millisecond), Period: 1.0, T: 0.99}
	timeSystem(tm)

	// T wrapped past the period and restarted near zero.
	assert.Less(t, tm.T, 0.99)
	assert.GreaterOrEqual(t, tm.T, 0.0)
	// Elapsed keeps counting across the wrap.
	assert.InDelta(t, tm.Dt, tm.Elapsed, 1e-9)
}

func TestTimeSystemZeroPeriodNeverWraps(t *testing.T) {
	tm := &Time{Now: time.Now().Add(-20 * time.Millisecond), Period: 0, T: 1e6}
	timeSystem(tm)
	assert.Greater(t, tm.T, 1e6)
}

func TestTimeSystemFPSWindow(t *testing.T) {
	tm := &Time{Now: time.Now().Add(-1100 * time.Millisecond)}
	timeSystem(tm)

	// A single frame spanning over a second closes the FPS window.
	assert.Greater(t, tm.FPS, 0.0)
	assert.Less(t, tm.FPS, 1.1)
	assert.Equal(t, 0, tm.frameCount)
}
