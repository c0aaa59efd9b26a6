package render

import (
	"io"

	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer streams triangles into a caller provided buffer.
type Renderer interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// MeshSink receives the finished mesh of a step. The sink must copy
// whatever it needs to keep: the mesh is reused by the next step.
type MeshSink interface {
	WriteMesh(m *Mesh) error
}

// SinkFunc adapts a function to the MeshSink interface.
type SinkFunc func(m *Mesh) error

func (f SinkFunc) WriteMesh(m *Mesh) error { return f(m) }

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.RenderAll implementation.
func RenderAll(r Renderer) ([]Triangle3, error) {
	var err error
	var nt int
	result := make([]Triangle3, 0, 1<<12)
	buf := make([]Triangle3, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		result = append(result, buf[:nt]...)
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// meanNormal returns the normalized average of the vertex normals of a
// triangle, falling back to the geometric normal when they cancel out.
func meanNormal(m *Mesh, tri int) r3.Vec {
	idx := m.Indices[3*tri : 3*tri+3]
	sum := r3.Add(r3.Add(m.Normals[idx[0]], m.Normals[idx[1]]), m.Normals[idx[2]])
	if r3.Norm2(sum) == 0 {
		return m.Triangle(tri).Normal()
	}
	return r3.Unit(sum)
}
