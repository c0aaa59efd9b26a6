// Command metaballs animates a metaball scene, rebuilding the marching cubes
// mesh of its zero isosurface on every step.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/soypat/mcubes/internal/config"
	"github.com/soypat/mcubes/internal/logger"
	"github.com/soypat/mcubes/internal/scene"
)

func main() {
	var fl config.Flags
	fl.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(&fl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: %+v", cfg)

	if fl.Dump != "" {
		if err := cfg.SaveTo(fl.Dump); err != nil {
			logger.Log.Error("saving config", zap.Error(err))
			os.Exit(1)
		}
		logger.Log.Info("config written", zap.String("path", fl.Dump))
	}

	sc := scene.Default()
	if cfg.Sim.Scene != "" {
		sc, err = scene.ReadFile(cfg.Sim.Scene)
		if err != nil {
			logger.Log.Error("reading scene", zap.String("path", cfg.Sim.Scene), zap.Error(err))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, sc); err != nil {
		logger.Log.Error("run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
