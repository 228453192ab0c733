package isoflow

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all demo parameters. Defaults are embedded; a user file
// and command-line arguments override them.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Volume    VolumeConfig    `yaml:"volume"`
	Surface   SurfaceConfig   `yaml:"surface"`
	Particles ParticlesConfig `yaml:"particles"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Debug     bool            `yaml:"debug"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// VolumeConfig is the sample lattice resolution of the scalar field.
type VolumeConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

type SurfaceConfig struct {
	Iso         float32 `yaml:"iso"`
	MorphPeriod float64 `yaml:"morph_period"`
}

type ParticlesConfig struct {
	Flow             int        `yaml:"flow"`
	InitialThreshold int        `yaml:"initial_threshold"`
	InitialCapacity  int        `yaml:"initial_capacity"`
	Gravity          float32    `yaml:"gravity"`
	BounceDamping    float32    `yaml:"bounce_damping"`
	Lifetime         [2]float32 `yaml:"lifetime"`
	Color            [3]float32 `yaml:"color"`
}

type TelemetryConfig struct {
	Dir         string  `yaml:"dir"`
	IntervalSec float64 `yaml:"interval_sec"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads defaults and overlays an optional YAML file.
func LoadConfig(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the hard limits. Volume dimensions below 4 cannot
// form a single marching-cubes cell layer with centered differences.
func (c *Config) Validate() error {
	if c.Volume.X < 4 {
		return fmt.Errorf("volume size x < 4 (got %d)", c.Volume.X)
	}
	if c.Volume.Y < 4 {
		return fmt.Errorf("volume size y < 4 (got %d)", c.Volume.Y)
	}
	if c.Volume.Z < 4 {
		return fmt.Errorf("volume size z < 4 (got %d)", c.Volume.Z)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive (got %dx%d)", c.Window.Width, c.Window.Height)
	}
	if c.Particles.Flow <= 0 {
		return fmt.Errorf("particle flow must be positive (got %d)", c.Particles.Flow)
	}
	if c.Particles.InitialCapacity <= 0 {
		return fmt.Errorf("particle capacity must be positive (got %d)", c.Particles.InitialCapacity)
	}
	if c.Surface.MorphPeriod <= 0 {
		return fmt.Errorf("morph period must be positive (got %g)", c.Surface.MorphPeriod)
	}
	return nil
}
