package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/mcubes/field"
	"github.com/soypat/mcubes/internal/config"
	"github.com/soypat/mcubes/internal/scene"
	"github.com/soypat/mcubes/render"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Sim.Steps = 3
	cfg.Mesh.FineCubeSize = 0.2
	cfg.Mesh.FinePadding = 1.5
	cfg.Mesh.Align = 1
	cfg.Output.STL = filepath.Join(dir, "final.stl")
	cfg.Output.Preview = filepath.Join(dir, "final.png")
	cfg.Output.PreviewSize = 32
	cfg.Output.StatsPlot = filepath.Join(dir, "stats.png")
	return cfg
}

func TestRun(t *testing.T) {
	for _, batchedRun := range []bool{false, true} {
		cfg := testConfig(t)
		cfg.Sim.Batched = batchedRun
		if err := run(context.Background(), cfg, scene.Default()); err != nil {
			t.Fatal(err)
		}
		for _, path := range []string{cfg.Output.STL, cfg.Output.Preview, cfg.Output.StatsPlot} {
			fi, err := os.Stat(path)
			if err != nil || fi.Size() == 0 {
				t.Errorf("batched=%v: output %s not written: %v", batchedRun, path, err)
			}
		}
		fp, err := os.Open(cfg.Output.STL)
		if err != nil {
			t.Fatal(err)
		}
		tris, err := render.ReadSTL(fp)
		fp.Close()
		if err != nil || len(tris) == 0 {
			t.Errorf("batched=%v: bad STL output, %d triangles: %v", batchedRun, len(tris), err)
		}
	}
}

func TestRunEveryStep(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.Output.STL)
	cfg.Output.STL = filepath.Join(dir, "step%02d.stl")
	cfg.Output.EveryStep = true
	if err := run(context.Background(), cfg, scene.Default()); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"step00.stl", "step01.stl", "step02.stl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Error(err)
		}
	}
}

func TestRunInterrupted(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx, cfg, scene.Default()); err != nil {
		t.Fatal(err)
	}
	// No step ran, nothing to write.
	if _, err := os.Stat(cfg.Output.STL); !os.IsNotExist(err) {
		t.Errorf("expected no STL output, got %v", err)
	}
}

// stubStepper fails every step while reporting the grid of an earlier one.
type stubStepper struct{ err error }

func (s stubStepper) step(f *field.Metaballs) (int, int, error) {
	f.Advance()
	if s.err != nil {
		return 0, 0, s.err
	}
	return 12, 36, nil
}

func (stubStepper) mesh() *render.Mesh { return &render.Mesh{} }
func (stubStepper) cubes() int         { return 512 }

func TestStepOnceRecords(t *testing.T) {
	f, err := scene.Default().Metaballs(0.1)
	if err != nil {
		t.Fatal(err)
	}
	rec := stepOnce(stubStepper{err: errors.New("field exploded")}, f, 4)
	if !rec.Failed || rec.Step != 4 {
		t.Fatalf("expected failed record for step 4, got %+v", rec)
	}
	if rec.Cubes != 0 || rec.Triangles != 0 || rec.Vertices != 0 {
		t.Errorf("failed record reports sizes: %+v", rec)
	}
	rec = stepOnce(stubStepper{}, f, 5)
	if rec.Failed || rec.Cubes != 512 || rec.Triangles != 12 || rec.Vertices != 36 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Time != f.Time() {
		t.Errorf("record time %g, field time %g", rec.Time, f.Time())
	}
}
