package render

import (
	"errors"
	"math"

	"github.com/soypat/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrBadPadding     = errors.New("padding multiplier must be non-negative and finite")
	ErrBadNormalDelta = errors.New("normal finite difference step must be positive and finite")
	ErrBadAlign       = errors.New("grid count alignment must not be negative")
)

// Config holds the caller supplied parameters of an extraction.
type Config struct {
	// CubeSize is the side length of grid cubes, the mesh resolution.
	CubeSize float64
	// Padding multiplies each source radius to enlarge the working area.
	Padding float64
	// NormalDelta is the central difference step used to estimate normals.
	NormalDelta float64
	// Align rounds grid cube counts up to a multiple of Align when greater than 1.
	Align int
}

// DefaultConfig returns the configuration of a fine extraction around unit radius sources.
func DefaultConfig() Config {
	return Config{
		CubeSize:    0.1,
		Padding:     5,
		NormalDelta: 1e-3,
		Align:       1,
	}
}

// Validate returns an error if the configuration can not be used for extraction.
func (cfg Config) Validate() error {
	switch {
	case !(cfg.CubeSize > 0) || math.IsInf(cfg.CubeSize, 1):
		return ErrBadCubeSize
	case !(cfg.Padding >= 0) || math.IsInf(cfg.Padding, 1):
		return ErrBadPadding
	case !(cfg.NormalDelta > 0) || math.IsInf(cfg.NormalDelta, 1):
		return ErrBadNormalDelta
	case cfg.Align < 0:
		return ErrBadAlign
	}
	return nil
}

// Extractor rebuilds the zero isosurface mesh of a field on each call to
// Extract. A mesh is only published when its whole extraction succeeds,
// so after a failed step Mesh still returns the previous step's mesh.
//
// An Extractor is not safe for concurrent use.
type Extractor struct {
	cfg   Config
	front Mesh
	back  Mesh
	grid  Grid
	// Sample planes perpendicular to x at the current and next grid column.
	slab0, slab1 []float64
}

// NewExtractor returns an Extractor for the given configuration.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Mesh returns the last published mesh. Its contents are replaced by the
// next successful call to Extract.
func (e *Extractor) Mesh() *Mesh { return &e.front }

// Grid returns the grid used by the last successful extraction.
func (e *Extractor) Grid() Grid { return e.grid }

// Extract runs a full extraction over f: it derives the working area from
// the field's sources, builds the grid, triangulates every cube and
// publishes the assembled mesh, which is returned.
func (e *Extractor) Extract(f mcubes.Field) (*Mesh, error) {
	if f == nil {
		return nil, mcubes.ErrNilField
	}
	area := WorkingArea(f.Sources(), e.cfg.Padding)
	grid, err := NewGrid(area, e.cfg.CubeSize, e.cfg.Align)
	if err != nil {
		return nil, err
	}
	e.back.Reset()
	if err = e.march(f, &grid); err != nil {
		return nil, err
	}
	e.front, e.back = e.back, e.front
	e.grid = grid
	return &e.front, nil
}

// Step advances f one step, extracts its surface and hands the resulting
// mesh to sink. sink may be nil.
func (e *Extractor) Step(f mcubes.Animated, sink MeshSink) error {
	if f == nil {
		return mcubes.ErrNilField
	}
	f.Advance()
	m, err := e.Extract(f)
	if err != nil {
		return err
	}
	if sink != nil {
		return sink.WriteMesh(m)
	}
	return nil
}

// march triangulates every cube of g into the back mesh. Each lattice point
// is sampled once: the field is evaluated one yz plane at a time and the
// two planes bounding a column of cubes are kept in memory.
func (e *Extractor) march(f mcubes.Field, g *Grid) error {
	nx, ny, nz := g.Counts()
	if g.Len() == 0 {
		return nil
	}
	plane := (ny + 1) * (nz + 1)
	if cap(e.slab0) < plane {
		e.slab0 = make([]float64, plane)
		e.slab1 = make([]float64, plane)
	}
	s0, s1 := e.slab0[:plane], e.slab1[:plane]
	if err := sampleSlab(s0, f, g, 0); err != nil {
		return err
	}
	stride := nz + 1
	var vals [8]float64
	for i := 0; i < nx; i++ {
		if err := sampleSlab(s1, f, g, i+1); err != nil {
			return err
		}
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				lo, hi := j*stride+k, (j+1)*stride+k
				vals = [8]float64{
					s0[lo], s0[hi], s1[hi], s1[lo],
					s0[lo+1], s0[hi+1], s1[hi+1], s1[lo+1],
				}
				if CubeConfig(vals)%255 == 0 {
					continue // Fully inside or outside.
				}
				c := g.Cube(i, j, k)
				if _, err := marchValues(&e.back, f, &c, &vals, e.cfg.NormalDelta); err != nil {
					return err
				}
			}
		}
		s0, s1 = s1, s0
	}
	return nil
}

// sampleSlab evaluates f over the yz sample plane at x sample index i.
func sampleSlab(dst []float64, f mcubes.Field, g *Grid, i int) error {
	x := g.X[i]
	stride := len(g.Z)
	for j, y := range g.Y {
		for k, z := range g.Z {
			p := r3.Vec{X: x, Y: y, Z: z}
			v, err := f.Evaluate(p)
			if err != nil {
				return sampleErr(p, err)
			}
			dst[j*stride+k] = v
		}
	}
	return nil
}
