package config

import "flag"

// Flags holds command line overrides. Zero values leave the loaded
// configuration untouched.
type Flags struct {
	Config   string
	Debug    bool
	Steps    int
	CubeSize float64
	Coarse   bool
	Batched  bool
	Scene    string
	STL      string
	Preview  string
	Plot     string
	Dump     string
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file (default ./"+DefaultPath+" if present)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Steps, "steps", 0, "Number of simulation steps")
	fs.Float64Var(&f.CubeSize, "cube", 0, "Cube side length of the selected resolution")
	fs.BoolVar(&f.Coarse, "coarse", false, "Use the coarse dispatch sized grid")
	fs.BoolVar(&f.Batched, "batched", false, "Use the single precision batched extractor")
	fs.StringVar(&f.Scene, "scene", "", "Path to INI scene file")
	fs.StringVar(&f.STL, "stl", "", "Output STL path")
	fs.StringVar(&f.Preview, "preview", "", "Output preview PNG path")
	fs.StringVar(&f.Plot, "plot", "", "Output statistics plot path")
	fs.StringVar(&f.Dump, "dump-config", "", "Write the resulting config to this path")
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Steps > 0 {
		cfg.Sim.Steps = f.Steps
	}
	if f.Coarse {
		cfg.Sim.Fine = false
	}
	if f.CubeSize > 0 {
		if cfg.Sim.Fine {
			cfg.Mesh.FineCubeSize = f.CubeSize
		} else {
			cfg.Mesh.CubeSize = f.CubeSize
		}
	}
	if f.Batched {
		cfg.Sim.Batched = true
	}
	if f.Scene != "" {
		cfg.Sim.Scene = f.Scene
	}
	if f.STL != "" {
		cfg.Output.STL = f.STL
	}
	if f.Preview != "" {
		cfg.Output.Preview = f.Preview
	}
	if f.Plot != "" {
		cfg.Output.StatsPlot = f.Plot
	}
}
