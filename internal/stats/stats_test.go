package stats

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSummary(t *testing.T) {
	var c Collector
	if s := c.Summary(); s.Steps != 0 || s.MeanTriangles != 0 {
		t.Errorf("empty collector summary %+v", s)
	}
	c.Add(Record{Step: 0, Triangles: 100, Vertices: 300, Elapsed: 10 * time.Millisecond})
	c.Add(Record{Step: 1, Failed: true, Elapsed: 2 * time.Millisecond})
	c.Add(Record{Step: 2, Triangles: 300, Vertices: 900, Elapsed: 30 * time.Millisecond})
	s := c.Summary()
	if s.Steps != 3 || s.Failed != 1 {
		t.Errorf("got %d steps and %d failed", s.Steps, s.Failed)
	}
	if s.MeanTriangles != 200 || s.MaxTriangles != 300 {
		t.Errorf("got mean %g max %d", s.MeanTriangles, s.MaxTriangles)
	}
	if math.Abs(s.StdTriangles-math.Sqrt(20000)) > 1e-9 {
		t.Errorf("got std %g", s.StdTriangles)
	}
	if s.MeanElapsed != 20*time.Millisecond || s.TotalElapsed != 42*time.Millisecond {
		t.Errorf("got elapsed mean %s total %s", s.MeanElapsed, s.TotalElapsed)
	}
	if len(c.Records()) != 3 {
		t.Errorf("got %d records", len(c.Records()))
	}
	if s.String() == "" {
		t.Error("empty summary string")
	}

	var single Collector
	single.Add(Record{Triangles: 5})
	if s := single.Summary(); s.StdTriangles != 0 || s.MeanTriangles != 5 {
		t.Errorf("single record summary %+v", s)
	}
}

func TestPlot(t *testing.T) {
	var c Collector
	if err := c.Plot(filepath.Join(t.TempDir(), "empty.png")); err == nil {
		t.Error("expected error plotting no records")
	}
	for i := 0; i < 20; i++ {
		tris := 1000 + 50*i
		c.Add(Record{Step: i, Triangles: tris, Vertices: 3 * tris})
	}
	for _, name := range []string{"stats.png", "stats.svg"} {
		path := filepath.Join(t.TempDir(), name)
		if err := c.Plot(path); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(path)
		if err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}
