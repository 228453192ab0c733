package isoflow

import (
	"github.com/isoflow3d/isoflow/telemetry"
)

// TelemetryState samples the frame counters into the run's CSV at a
// fixed interval.
type TelemetryState struct {
	out      *telemetry.OutputManager
	interval float64
	elapsed  float64
	log      Logger
}

type TelemetryModule struct {
	Config    TelemetryConfig
	AppConfig *Config
}

func (m TelemetryModule) Install(app *App, cmd *Commands) {
	log := app.Logger()
	out, err := telemetry.NewOutputManager(m.Config.Dir)
	if err != nil {
		log.Errorf("telemetry disabled: %v", err)
		return
	}
	if out == nil {
		return
	}
	if err := out.WriteConfig(m.AppConfig); err != nil {
		log.Warnf("telemetry config snapshot: %v", err)
	}
	log.Infof("telemetry run directory %s", out.Dir())

	interval := m.Config.IntervalSec
	if interval <= 0 {
		interval = 1.0
	}
	cmd.AddResources(&TelemetryState{out: out, interval: interval, log: log})
	cmd.UseSystem(System(telemetrySystem).InStage(PostRender))
	app.OnShutdown(func() {
		if err := out.Close(); err != nil {
			log.Warnf("closing telemetry: %v", err)
		}
	})
}

func telemetrySystem(st *TelemetryState, tm *Time, surf *SurfaceState, ps *ParticleState) {
	st.elapsed += tm.Dt
	if st.elapsed < st.interval {
		return
	}
	st.elapsed = 0

	err := st.out.WriteFrame(telemetry.FrameStats{
		Time:      tm.Elapsed,
		FPS:       tm.FPS,
		Triangles: surf.TriangleCount(),
		Particles: ps.Count(),
		Emitted:   ps.EmittedLast(),
		Threshold: ps.Threshold(),
	})
	if err != nil {
		st.log.Warnf("telemetry write: %v", err)
	}
}
