package main

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/soypat/mcubes/field"
	"github.com/soypat/mcubes/internal/config"
	"github.com/soypat/mcubes/internal/logger"
	"github.com/soypat/mcubes/internal/preview"
	"github.com/soypat/mcubes/internal/scene"
	"github.com/soypat/mcubes/internal/stats"
	"github.com/soypat/mcubes/render"
)

// stepper is the extraction loop over either extractor.
type stepper interface {
	// step advances the field and returns the new mesh's triangle and vertex counts.
	step(f *field.Metaballs) (triangles, vertices int, err error)
	// mesh returns the last published mesh.
	mesh() *render.Mesh
	cubes() int
}

type sequential struct {
	e    *render.Extractor
	sink render.MeshSink
}

func (s *sequential) step(f *field.Metaballs) (int, int, error) {
	if err := s.e.Step(f, s.sink); err != nil {
		return 0, 0, err
	}
	m := s.e.Mesh()
	return m.TriangleCount(), m.VertexCount(), nil
}

func (s *sequential) mesh() *render.Mesh { return s.e.Mesh() }
func (s *sequential) cubes() int         { return s.e.Grid().Len() }

type batched struct {
	be   *render.BatchExtractor
	sink render.MeshSink
}

func (b *batched) step(f *field.Metaballs) (int, int, error) {
	if err := b.be.Step(f, b.sink); err != nil {
		return 0, 0, err
	}
	m := b.be.Mesh()
	return m.TriangleCount(), len(m.Vertices), nil
}

func (b *batched) mesh() *render.Mesh { return b.be.Mesh().ToMesh() }
func (b *batched) cubes() int         { return b.be.Grid().Len() }

func newStepper(cfg *config.Config) (stepper, error) {
	var sink render.MeshSink
	if cfg.Output.EveryStep && cfg.Output.STL != "" {
		sink = &render.STLSink{Path: cfg.Output.STL}
	}
	rcfg := cfg.Render()
	if cfg.Sim.Batched {
		be, err := render.NewBatchExtractor(rcfg, cfg.Sim.BatchCubes)
		if err != nil {
			return nil, err
		}
		return &batched{be: be, sink: sink}, nil
	}
	e, err := render.NewExtractor(rcfg)
	if err != nil {
		return nil, err
	}
	return &sequential{e: e, sink: sink}, nil
}

// run steps the scene's field cfg.Sim.Steps times and writes the requested
// outputs. Cancelling ctx stops the loop between steps; outputs are still
// written for the last published mesh.
func run(ctx context.Context, cfg *config.Config, sc *scene.Scene) error {
	f, err := sc.Metaballs(cfg.Sim.Dt)
	if err != nil {
		return err
	}
	st, err := newStepper(cfg)
	if err != nil {
		return err
	}
	rcfg := cfg.Render()
	logger.Log.Info("starting",
		zap.Int("balls", len(sc.Balls)),
		zap.Int("steps", cfg.Sim.Steps),
		zap.Float64("cube_size", rcfg.CubeSize),
		zap.Float64("padding", rcfg.Padding),
		zap.Bool("batched", cfg.Sim.Batched),
	)

	var col stats.Collector
	for i := 0; i < cfg.Sim.Steps; i++ {
		if err := ctx.Err(); err != nil {
			logger.Log.Warn("interrupted", zap.Int("step", i))
			break
		}
		col.Add(stepOnce(st, f, i))
	}
	logger.Sugar.Infof("done: %s", col.Summary())
	return writeOutputs(cfg, st.mesh(), &col)
}

// stepOnce runs step i and logs its outcome. Failed records carry no mesh
// or grid sizes since the stepper keeps the previous step's.
func stepOnce(st stepper, f *field.Metaballs, i int) stats.Record {
	start := time.Now()
	tris, verts, err := st.step(f)
	elapsed := time.Since(start)
	rec := stats.Record{Step: i, Time: f.Time(), Elapsed: elapsed}
	if err != nil {
		rec.Failed = true
		logger.StepFailed(i, err)
		return rec
	}
	rec.Cubes, rec.Triangles, rec.Vertices = st.cubes(), tris, verts
	logger.Step(i, f.Time(), tris, verts, elapsed)
	logger.Log.Debug("grid", zap.Int("step", i), zap.Int("cubes", rec.Cubes))
	return rec
}

func writeOutputs(cfg *config.Config, m *render.Mesh, col *stats.Collector) error {
	out := cfg.Output
	if m.IsEmpty() {
		logger.Log.Warn("final mesh is empty, skipping mesh outputs")
	} else {
		if out.STL != "" && !out.EveryStep {
			if err := writeSTL(out.STL, m); err != nil {
				return err
			}
			logger.Log.Info("mesh written", zap.String("path", out.STL), zap.Int("triangles", m.TriangleCount()))
		}
		if out.Preview != "" {
			if err := preview.WritePNG(out.Preview, m, preview.DefaultOptions(out.PreviewSize)); err != nil {
				return err
			}
			logger.Log.Info("preview written", zap.String("path", out.Preview))
		}
	}
	if out.StatsPlot != "" && len(col.Records()) > 0 {
		err := col.Plot(out.StatsPlot)
		if err != nil {
			return err
		}
		logger.Log.Info("statistics plot written", zap.String("path", out.StatsPlot))
	}
	return nil
}

func writeSTL(path string, m *render.Mesh) (err error) {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, fp.Close())
	}()
	return render.WriteSTL(fp, m)
}
