// Package config handles metaballs configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/mcubes/render"
)

// Config holds all settings of a metaballs run.
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Sim     SimConfig     `yaml:"sim"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig holds extraction settings. Two resolutions are kept: the
// coarse pair matches a GPU dispatch sized grid, the fine pair is used for
// sequential extraction.
type MeshConfig struct {
	CubeSize     float64 `yaml:"cube_size"`
	Padding      float64 `yaml:"padding"`
	FineCubeSize float64 `yaml:"fine_cube_size"`
	FinePadding  float64 `yaml:"fine_padding"`
	NormalDelta  float64 `yaml:"normal_delta"`
	Align        int     `yaml:"align"`
}

// SimConfig holds simulation loop settings.
type SimConfig struct {
	Steps int     `yaml:"steps"`
	Dt    float64 `yaml:"dt"`
	Scene string  `yaml:"scene"` // Path to INI scene file. Empty uses the built in scene.
	Fine  bool    `yaml:"fine"`
	// Batched selects the single precision batched extractor.
	Batched    bool `yaml:"batched"`
	BatchCubes int  `yaml:"batch_cubes"`
}

// OutputConfig holds output file paths. Empty paths disable the output.
type OutputConfig struct {
	STL         string `yaml:"stl"`
	Preview     string `yaml:"preview"`
	PreviewSize int    `yaml:"preview_size"`
	StatsPlot   string `yaml:"stats_plot"`
	// EveryStep writes an STL file per step; STL must then hold a
	// formatting verb for the step number, i.e: "step%03d.stl".
	EveryStep bool `yaml:"every_step"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			CubeSize:     0.8,
			Padding:      2,
			FineCubeSize: 0.1,
			FinePadding:  5,
			NormalDelta:  1e-3,
			Align:        8,
		},
		Sim: SimConfig{
			Steps:      60,
			Dt:         1.0 / 30,
			Fine:       true,
			BatchCubes: 512,
		},
		Output: OutputConfig{
			STL:         "metaballs.stl",
			PreviewSize: 512,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 1) {
			errs = append(errs, fmt.Errorf("%s must be positive and finite, got %g", name, v))
		}
	}
	positive("mesh.cube_size", c.Mesh.CubeSize)
	positive("mesh.fine_cube_size", c.Mesh.FineCubeSize)
	positive("mesh.normal_delta", c.Mesh.NormalDelta)
	if !(c.Mesh.Padding >= 0) || !(c.Mesh.FinePadding >= 0) {
		errs = append(errs, errors.New("mesh padding must not be negative"))
	}
	if c.Mesh.Align < 0 {
		errs = append(errs, fmt.Errorf("mesh.align must not be negative, got %d", c.Mesh.Align))
	}
	if c.Sim.Steps < 0 {
		errs = append(errs, fmt.Errorf("sim.steps must not be negative, got %d", c.Sim.Steps))
	}
	if math.IsNaN(c.Sim.Dt) || math.IsInf(c.Sim.Dt, 0) {
		errs = append(errs, errors.New("sim.dt must be finite"))
	}
	if c.Sim.Batched && c.Sim.BatchCubes < 1 {
		errs = append(errs, fmt.Errorf("sim.batch_cubes must be positive, got %d", c.Sim.BatchCubes))
	}
	if c.Output.Preview != "" && c.Output.PreviewSize < 16 {
		errs = append(errs, fmt.Errorf("output.preview_size too small: %d", c.Output.PreviewSize))
	}
	return errors.Join(errs...)
}

// Render returns the extraction configuration for the selected resolution.
func (c *Config) Render() render.Config {
	cfg := render.Config{
		CubeSize:    c.Mesh.CubeSize,
		Padding:     c.Mesh.Padding,
		NormalDelta: c.Mesh.NormalDelta,
		Align:       c.Mesh.Align,
	}
	if c.Sim.Fine {
		cfg.CubeSize = c.Mesh.FineCubeSize
		cfg.Padding = c.Mesh.FinePadding
	}
	return cfg
}
