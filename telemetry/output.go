// Package telemetry records per-run demo statistics as CSV under a
// unique run directory.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// OutputManager writes frames.csv and a config snapshot into
// <baseDir>/<uuid>/. A nil manager (disabled telemetry) is safe to use.
type OutputManager struct {
	dir        string
	framesFile *os.File

	framesHeaderWritten bool
}

// NewOutputManager creates the run directory. Returns nil if baseDir is
// empty (output disabled).
func NewOutputManager(baseDir string) (*OutputManager, error) {
	if baseDir == "" {
		return nil, nil
	}

	dir := filepath.Join(baseDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}

	return &OutputManager{dir: dir, framesFile: f}, nil
}

// WriteConfig saves the effective configuration as YAML next to the
// CSV so runs stay reproducible.
func (om *OutputManager) WriteConfig(cfg any) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(filepath.Join(om.dir, "config.yaml"), data, 0644)
}

// WriteFrame appends one stats row to frames.csv, emitting the header
// on the first write.
func (om *OutputManager) WriteFrame(stats FrameStats) error {
	if om == nil {
		return nil
	}

	records := []FrameStats{stats}
	if !om.framesHeaderWritten {
		if err := gocsv.Marshal(records, om.framesFile); err != nil {
			return fmt.Errorf("writing frame stats: %w", err)
		}
		om.framesHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.framesFile); err != nil {
		return fmt.Errorf("writing frame stats: %w", err)
	}
	return nil
}

// Dir returns the run directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the output files.
func (om *OutputManager) Close() error {
	if om == nil || om.framesFile == nil {
		return nil
	}
	return om.framesFile.Close()
}
