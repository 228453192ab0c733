package telemetry

// FrameStats is one sampled row of the demo's per-interval telemetry.
type FrameStats struct {
	Time      float64 `csv:"time"`
	FPS       float64 `csv:"fps"`
	Triangles int     `csv:"triangles"`
	Particles int     `csv:"particles"`
	Emitted   int     `csv:"emitted"`
	Threshold int     `csv:"threshold"`
}
