package render

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh32 holds single precision output streams ready for upload to a GPU.
type Mesh32 struct {
	Vertices []ms3.Vec
	Normals  []ms3.Vec
	Indices  []uint32
}

// Reset clears the streams keeping their allocated capacity.
func (m *Mesh32) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Normals = m.Normals[:0]
	m.Indices = m.Indices[:0]
}

// TriangleCount returns the number of triangles.
func (m *Mesh32) TriangleCount() int { return len(m.Indices) / 3 }

// Flatten returns the streams as flat arrays: 3 floats per vertex
// (x,y,z), 3 floats per normal and 3 indices per triangle.
func (m *Mesh32) Flatten() (vertices, normals []float32, indices []uint32) {
	vertices = make([]float32, 0, 3*len(m.Vertices))
	for _, v := range m.Vertices {
		vertices = append(vertices, v.X, v.Y, v.Z)
	}
	normals = make([]float32, 0, 3*len(m.Normals))
	for _, n := range m.Normals {
		normals = append(normals, n.X, n.Y, n.Z)
	}
	indices = append([]uint32(nil), m.Indices...)
	return vertices, normals, indices
}

// ToMesh returns a double precision copy of the mesh.
func (m *Mesh32) ToMesh() *Mesh {
	out := &Mesh{
		Vertices: make([]r3.Vec, len(m.Vertices)),
		Normals:  make([]r3.Vec, len(m.Normals)),
		Indices:  make([]int, len(m.Indices)),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
	}
	for i, n := range m.Normals {
		out.Normals[i] = r3.Vec{X: float64(n.X), Y: float64(n.Y), Z: float64(n.Z)}
	}
	for i, idx := range m.Indices {
		out.Indices[i] = int(idx)
	}
	return out
}

// BatchExtractor extracts the zero isosurface of a BatchField. It uses the
// same tables, corner order and sign convention as Extractor but gathers
// the corners of many cubes and evaluates them in a single call, the way a
// compute kernel dispatch would.
//
// A BatchExtractor is not safe for concurrent use.
type BatchExtractor struct {
	cfg   Config
	front Mesh32
	back  Mesh32
	grid  Grid
	// Below are the buffers for storing positional input to the field and resulting samples.

	// posbuf's length accumulates positions to be evaluated.
	posbuf []ms3.Vec
	// distbuf is set to the calculated samples for posbuf.
	distbuf []float32
}

// NewBatchExtractor returns a BatchExtractor that evaluates up to batchCubes
// cubes per field evaluation call.
func NewBatchExtractor(cfg Config, batchCubes int) (*BatchExtractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if batchCubes < 1 {
		return nil, errors.New("batch must hold at least one cube")
	}
	return &BatchExtractor{
		cfg:     cfg,
		posbuf:  make([]ms3.Vec, 0, 8*batchCubes),
		distbuf: make([]float32, 8*batchCubes),
	}, nil
}

// Mesh returns the last published mesh.
func (be *BatchExtractor) Mesh() *Mesh32 { return &be.front }

// Grid returns the grid used by the last successful extraction.
func (be *BatchExtractor) Grid() Grid { return be.grid }

// Extract runs a full extraction over f and publishes the resulting mesh.
func (be *BatchExtractor) Extract(f mcubes.BatchField) (*Mesh32, error) {
	if f == nil {
		return nil, mcubes.ErrNilField
	}
	area := WorkingArea(f.Sources(), be.cfg.Padding)
	grid, err := NewGrid(area, be.cfg.CubeSize, be.cfg.Align)
	if err != nil {
		return nil, err
	}
	be.back.Reset()
	it := grid.Cubes()
	for {
		// Gather cube corners until the position buffer is full.
		first := it.Visited()
		be.posbuf = be.posbuf[:0]
		for cap(be.posbuf)-len(be.posbuf) >= 8 {
			c, ok := it.Next()
			if !ok {
				break
			}
			for _, p := range c {
				be.posbuf = append(be.posbuf, ms3.Vec{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)})
			}
		}
		if len(be.posbuf) == 0 {
			break
		}
		n := len(be.posbuf)
		if err = f.Evaluate(be.posbuf, be.distbuf[:n], nil); err != nil {
			return nil, fmt.Errorf("sampling corners of cubes %d..%d: %w", first, it.Visited()-1, err)
		}
		be.marchCubes(n)
	}
	if err = be.computeNormals(f); err != nil {
		return nil, err
	}
	be.front, be.back = be.back, be.front
	be.grid = grid
	return &be.front, nil
}

// Step advances f one step, extracts its surface and hands a float64 copy
// of the resulting mesh to sink. sink may be nil.
func (be *BatchExtractor) Step(f mcubes.Animated, sink MeshSink) error {
	if f == nil {
		return mcubes.ErrNilField
	}
	f.Advance()
	m, err := be.Extract(mcubes.Batched(f))
	if err != nil {
		return err
	}
	if sink != nil {
		return sink.WriteMesh(m.ToMesh())
	}
	return nil
}

// marchCubes triangulates the first limit/8 cubes in the position buffer.
// Normals are left as zero vectors to be computed in a later batched pass.
func (be *BatchExtractor) marchCubes(limit int) {
	var p [8]ms3.Vec
	var d [8]float32
	for iPos := 0; iPos < limit; iPos += 8 {
		copy(p[:], be.posbuf[iPos:iPos+8])
		copy(d[:], be.distbuf[iPos:iPos+8])
		config := 0
		for i, v := range d {
			if v > 0 {
				config |= 1 << i
			}
		}
		edges := mcTriangleTable[config]
		for _, edge := range edges {
			pair := mcEdgeCorners[edge]
			be.back.Vertices = append(be.back.Vertices, edgeCrossing32(p[pair[0]], p[pair[1]], d[pair[0]], d[pair[1]]))
			be.back.Normals = append(be.back.Normals, ms3.Vec{})
			be.back.Indices = append(be.back.Indices, uint32(len(be.back.Vertices)-1))
		}
	}
}

// computeNormals evaluates the central difference gradient of every vertex
// in the back mesh, 6 samples per vertex, as many vertices per call as the
// position buffer can hold.
func (be *BatchExtractor) computeNormals(f mcubes.BatchField) error {
	delta := float32(be.cfg.NormalDelta)
	offsets := [3]ms3.Vec{{X: delta}, {Y: delta}, {Z: delta}}
	perCall := cap(be.posbuf) / 6 // Never zero, buffer holds at least one cube.
	verts := be.back.Vertices
	for start := 0; start < len(verts); start += perCall {
		end := start + perCall
		if end > len(verts) {
			end = len(verts)
		}
		be.posbuf = be.posbuf[:0]
		for _, v := range verts[start:end] {
			for _, off := range offsets {
				be.posbuf = append(be.posbuf, ms3.Add(v, off), ms3.Sub(v, off))
			}
		}
		n := len(be.posbuf)
		if err := f.Evaluate(be.posbuf, be.distbuf[:n], nil); err != nil {
			return fmt.Errorf("sampling normals of vertices %d..%d: %w", start, end-1, err)
		}
		for i := start; i < end; i++ {
			d := be.distbuf[6*(i-start) : 6*(i-start)+6]
			be.back.Normals[i] = normal32(d[0]-d[1], d[2]-d[3], d[4]-d[5])
		}
	}
	return nil
}

// edgeCrossing32 is the single precision version of edgeCrossing.
func edgeCrossing32(pa, pb ms3.Vec, sa, sb float32) ms3.Vec {
	t := float32(0.5)
	if denom := sb - sa; denom != 0 {
		t = sb / denom
	}
	if math32.IsNaN(t) {
		t = 0.5
	} else if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return ms3.Add(pb, ms3.Scale(t, ms3.Sub(pa, pb)))
}

// normal32 returns the negated unit gradient or the zero vector.
func normal32(gx, gy, gz float32) ms3.Vec {
	norm := math32.Sqrt(gx*gx + gy*gy + gz*gz)
	if norm == 0 || math32.IsNaN(norm) || math32.IsInf(norm, 0) {
		return ms3.Vec{}
	}
	return ms3.Vec{X: -gx / norm, Y: -gy / norm, Z: -gz / norm}
}
