package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/mcubes/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyMesh is returned by operations that need at least one triangle.
var ErrEmptyMesh = errors.New("empty mesh")

// Mesh holds the output streams of one extraction step. Normals are index
// aligned with Vertices and every three consecutive Indices form a triangle
// referencing positions in Vertices.
//
// Streams are append only: triangles are never removed individually, the
// whole mesh is reset before each rebuild.
type Mesh struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	Indices  []int
}

// Reset clears the streams keeping their allocated capacity.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Normals = m.Normals[:0]
	m.Indices = m.Indices[:0]
}

// AddTriangle appends a triangle's vertices and their normals to the mesh
// and indexes them as a new triangle.
func (m *Mesh) AddTriangle(v, n [3]r3.Vec) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, v[0], v[1], v[2])
	m.Normals = append(m.Normals, n[0], n[1], n[2])
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Indices) == 0 }

// Triangle returns the i'th triangle of the mesh.
func (m *Mesh) Triangle(i int) Triangle3 {
	idx := m.Indices[3*i : 3*i+3]
	return Triangle3{V: [3]r3.Vec{m.Vertices[idx[0]], m.Vertices[idx[1]], m.Vertices[idx[2]]}}
}

// Bounds returns the bounding box of the mesh vertices. The box is empty
// for a mesh with no vertices.
func (m *Mesh) Bounds() r3.Box {
	bb := d3.EmptyBox()
	for _, v := range m.Vertices {
		bb = bb.Include(v)
	}
	return r3.Box(bb)
}

// Validate checks stream invariants: normals aligned with vertices,
// whole triangles and every index referencing an existing vertex.
func (m *Mesh) Validate() error {
	if len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(m.Normals), len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("index %d at position %d out of range [0,%d)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]r3.Vec(nil), m.Vertices...),
		Normals:  append([]r3.Vec(nil), m.Normals...),
		Indices:  append([]int(nil), m.Indices...),
	}
}

// NewMeshReader returns a Renderer that reads the triangles of m in order.
func NewMeshReader(m *Mesh) Renderer {
	return &meshReader{m: m}
}

type meshReader struct {
	m    *Mesh
	next int
}

// ReadTriangles writes the mesh's triangles into the argument buffer.
// returns number of triangles written and io.EOF once the mesh is exhausted.
func (r *meshReader) ReadTriangles(dst []Triangle3) (n int, err error) {
	total := r.m.TriangleCount()
	for n < len(dst) && r.next < total {
		dst[n] = r.m.Triangle(r.next)
		n++
		r.next++
	}
	if r.next == total {
		return n, io.EOF
	}
	return n, nil
}
