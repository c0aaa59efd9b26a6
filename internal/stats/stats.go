// Package stats collects per step extraction statistics and plots them.
package stats

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Record holds the outcome of one simulation step.
type Record struct {
	Step      int
	Time      float64 // Simulation time after advancing.
	Cubes     int
	Triangles int
	Vertices  int
	Elapsed   time.Duration
	Failed    bool
}

// Summary aggregates the successful steps of a run.
type Summary struct {
	Steps, Failed int
	MeanTriangles float64
	MaxTriangles  int
	StdTriangles  float64
	MeanElapsed   time.Duration
	TotalElapsed  time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d steps (%d failed), triangles mean=%.1f std=%.1f max=%d, step time mean=%s total=%s",
		s.Steps, s.Failed, s.MeanTriangles, s.StdTriangles, s.MaxTriangles, s.MeanElapsed, s.TotalElapsed)
}

// Collector accumulates step records. The zero value is ready to use.
type Collector struct {
	records []Record
}

// Add appends a record.
func (c *Collector) Add(r Record) {
	c.records = append(c.records, r)
}

// Records returns the collected records in insertion order.
func (c *Collector) Records() []Record { return c.records }

// Summary returns aggregate statistics over the collected records.
func (c *Collector) Summary() Summary {
	var s Summary
	var tris, elapsed []float64
	for _, r := range c.records {
		s.Steps++
		s.TotalElapsed += r.Elapsed
		if r.Failed {
			s.Failed++
			continue
		}
		tris = append(tris, float64(r.Triangles))
		elapsed = append(elapsed, float64(r.Elapsed))
	}
	if len(tris) == 0 {
		return s
	}
	s.MeanTriangles, s.StdTriangles = stat.MeanStdDev(tris, nil)
	if len(tris) == 1 {
		s.StdTriangles = 0
	}
	s.MaxTriangles = int(floats.Max(tris))
	s.MeanElapsed = time.Duration(stat.Mean(elapsed, nil))
	return s
}

// Plot saves a line plot of triangle and vertex counts per step to path.
// The image format is chosen from the file extension.
func (c *Collector) Plot(path string) error {
	if len(c.records) == 0 {
		return errors.New("no step records to plot")
	}
	tris := make(plotter.XYs, 0, len(c.records))
	verts := make(plotter.XYs, 0, len(c.records))
	for _, r := range c.records {
		if r.Failed {
			continue
		}
		tris = append(tris, plotter.XY{X: float64(r.Step), Y: float64(r.Triangles)})
		verts = append(verts, plotter.XY{X: float64(r.Step), Y: float64(r.Vertices)})
	}
	if len(tris) == 0 {
		return errors.New("every step failed, nothing to plot")
	}
	p := plot.New()
	p.Title.Text = "Extracted mesh size"
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Count"
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name string
		xys  plotter.XYs
		col  color.Color
	}{
		{name: "triangles", xys: tris, col: color.RGBA{R: 0x46, G: 0x89, B: 0x66, A: 0xff}},
		{name: "vertices", xys: verts, col: color.RGBA{R: 0xb6, G: 0x40, B: 0x26, A: 0xff}},
	} {
		line, err := plotter.NewLine(series.xys)
		if err != nil {
			return err
		}
		line.Color = series.col
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
