// isoflow renders a morphing algebraic surface extracted on the GPU
// each frame, spraying particles that fall under gravity and bounce off
// the surface.
//
// Usage: isoflow [flags] xsize [ysize zsize]
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/go-gl/glfw/v3.3/glfw"

	isoflow "github.com/isoflow3d/isoflow"
)

func init() {
	runtime.LockOSThread()
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] xsize [ysize zsize]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	configPath := flag.String("config", "", "path to a YAML config overriding the defaults")
	telemetryDir := flag.String("telemetry", "", "directory for per-run telemetry CSV output")
	flag.Usage = usage
	flag.Parse()

	log := isoflow.NewDefaultLogger("isoflow", *debug)

	cfg, err := isoflow.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg.Debug = cfg.Debug || *debug
	if *telemetryDir != "" {
		cfg.Telemetry.Dir = *telemetryDir
	}

	// Positional volume dimensions; missing y and z default to x.
	args := flag.Args()
	if len(args) > 0 {
		dims := make([]int, 0, 3)
		for _, a := range args[:min(len(args), 3)] {
			v, err := strconv.Atoi(a)
			if err != nil {
				log.Fatalf("volume dimension %q is not a number", a)
			}
			dims = append(dims, v)
		}
		cfg.Volume.X = dims[0]
		cfg.Volume.Y = dims[0]
		cfg.Volume.Z = dims[0]
		if len(dims) > 1 {
			cfg.Volume.Y = dims[1]
			cfg.Volume.Z = dims[1]
		}
		if len(dims) > 2 {
			cfg.Volume.Z = dims[2]
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}
	defer glfw.Terminate()

	app := isoflow.NewAppBuilder().
		UseModule(
			isoflow.LoggingModule{Prefix: "isoflow", Debug: cfg.Debug},
			isoflow.TimeModule{Period: cfg.Surface.MorphPeriod * float64(len(isoflow.ShapeNames))},
			isoflow.WindowModule{
				Width:  cfg.Window.Width,
				Height: cfg.Window.Height,
				Title:  cfg.Window.Title,
			},
			isoflow.OrbitCameraModule{},
			isoflow.SurfaceModule{
				Volume:      cfg.Volume,
				Iso:         cfg.Surface.Iso,
				MorphPeriod: cfg.Surface.MorphPeriod,
			},
			isoflow.ParticlesModule{
				Config: cfg.Particles,
				Iso:    cfg.Surface.Iso,
			},
			isoflow.BillboardModule{Color: cfg.Particles.Color},
			isoflow.HudModule{Volume: cfg.Volume},
			isoflow.TelemetryModule{Config: cfg.Telemetry, AppConfig: cfg},
		).
		Build()

	log.Infof("volume %dx%dx%d, flow target %d particles/s",
		cfg.Volume.X, cfg.Volume.Y, cfg.Volume.Z, cfg.Particles.Flow)
	app.Run()
}
