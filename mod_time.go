package isoflow

import (
	"time"
)

// Time tracks wall-clock frame timing plus the demo clock t, which
// wraps after one full tour of the morph shapes so the pipeline can
// observe the restart (t < 1e-6) and reset its particle state.
type Time struct {
	Now     time.Time
	Dt      float64
	T       float64 // demo clock, wraps at Period
	Period  float64 // seconds for a full morph cycle
	Elapsed float64 // unwrapped seconds since start

	FPS        float64
	frameCount int
	fpsAccum   float64
}

type TimeModule struct {
	// Period of the demo clock; 0 means never wrap.
	Period float64
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Now:    time.Now(),
		Period: mod.Period,
	})
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(tm *Time) {
	now := time.Now()
	tm.Dt = now.Sub(tm.Now).Seconds()
	tm.Now = now
	tm.Elapsed += tm.Dt

	tm.T += tm.Dt
	if tm.Period > 0 && tm.T >= tm.Period {
		tm.T -= tm.Period
	}

	// FPS averaged over a one second window.
	tm.frameCount++
	tm.fpsAccum += tm.Dt
	if tm.fpsAccum >= 1.0 {
		tm.FPS = float64(tm.frameCount) / tm.fpsAccum
		tm.frameCount = 0
		tm.fpsAccum = 0
	}
}
