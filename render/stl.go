package render

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const stlTriangleSize = 50

// WriteSTL writes the mesh to a writer in binary STL file format. Facet
// normals are the average of the triangle's vertex normals. An empty mesh
// is written as a header with a zero triangle count.
func WriteSTL(w io.Writer, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	header := stlHeader{
		Count: uint32(m.TriangleCount()),
	}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}
	var b [stlTriangleSize]byte
	for i := 0; i < m.TriangleCount(); i++ {
		d := stlFromTriangle(m.Triangle(i), meanNormal(m, i))
		d.put(b[:])
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// CreateSTL streams the triangles of a Renderer into an STL file at path.
// Facet normals are computed from the triangle vertices.
func CreateSTL(path string, r Renderer) error {
	const sizeOfSTLHeader = 84
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	// Header is written last, once the triangle count is known.
	_, err = file.Seek(sizeOfSTLHeader, io.SeekStart)
	if err != nil {
		return err
	}
	rd := &stlReader{
		r: r,
	}
	n, err := io.CopyBuffer(file, rd, make([]byte, stlTriangleSize*trianglesInBuffer))
	if err != nil {
		return err
	}
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}
	header := stlHeader{
		Count: uint32(n / stlTriangleSize),
	}
	if err = binary.Write(file, binary.LittleEndian, &header); err != nil {
		return err
	}
	return file.Close()
}

// STLSink writes every mesh it receives to an STL file. If Path contains a
// formatting verb it is formatted with the amount of meshes received so far,
// producing one file per step; otherwise the file is overwritten each step.
// Empty meshes produce a valid STL file with no triangles. A mesh that
// cannot be encoded leaves the file system untouched.
type STLSink struct {
	Path     string
	received int
	buf      bytes.Buffer
}

func (s *STLSink) WriteMesh(m *Mesh) error {
	path := s.Path
	if strings.Contains(path, "%") {
		path = fmt.Sprintf(path, s.received)
	}
	s.received++
	s.buf.Reset()
	if err := WriteSTL(&s.buf, m); err != nil {
		return err
	}
	return os.WriteFile(path, s.buf.Bytes(), 0o644)
}

// ReadSTL reads the triangles of a binary STL file. A file with a zero
// triangle count yields no triangles and no error.
func ReadSTL(r io.Reader) ([]Triangle3, error) {
	return readBinarySTL(r)
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

const trianglesInBuffer = 1 << 10

// stlReader encodes triangles read from a Renderer as STL facets.
type stlReader struct {
	r   Renderer
	buf [trianglesInBuffer]Triangle3
	eof bool
}

func (w *stlReader) Read(b []byte) (int, error) {
	if w.eof {
		return 0, io.EOF
	}
	ntMax := min(len(b)/stlTriangleSize, len(w.buf))
	if ntMax == 0 {
		return 0, errors.New("stlReader requires at least 50 bytes to write a single triangle")
	}
	nt, err := w.r.ReadTriangles(w.buf[:ntMax])
	if nt > ntMax {
		panic("bug: ReadTriangles read more triangles than available in buffer")
	}
	for i, triangle := range w.buf[:nt] {
		d := stlFromTriangle(triangle, triangle.Normal())
		d.put(b[i*stlTriangleSize:])
	}
	if err == io.EOF {
		w.eof = true
		if nt > 0 {
			err = nil
		}
	}
	return nt * stlTriangleSize, err
}

func readBinarySTL(r io.Reader) ([]Triangle3, error) {
	br := bufio.NewReader(r)
	var header stlHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	var facet stlTriangle
	output := make([]Triangle3, 0, min(header.Count, 1<<20))
	for i := 0; i < int(header.Count); i++ {
		// Blank attribute field is skipped by binary.Read.
		if err := binary.Read(br, binary.LittleEndian, &facet); err != nil {
			return nil, fmt.Errorf("%d/%d STL triangles read: %w", i, header.Count, err)
		}
		if bad3F32(facet.Normal) || bad3F32(facet.Vertex1) || bad3F32(facet.Vertex2) || bad3F32(facet.Vertex3) {
			return nil, fmt.Errorf("inf/NaN in STL triangle %d", i)
		}
		output = append(output, facet.toTriangle3())
	}
	return output, nil
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func stlFromTriangle(t Triangle3, n r3.Vec) stlTriangle {
	return stlTriangle{
		Normal:  f32From3(n),
		Vertex1: f32From3(t.V[0]),
		Vertex2: f32From3(t.V[1]),
		Vertex3: f32From3(t.V[2]),
	}
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (d stlTriangle) toTriangle3() Triangle3 {
	return Triangle3{V: [3]r3.Vec{
		r3From3F32(d.Vertex1),
		r3From3F32(d.Vertex2),
		r3From3F32(d.Vertex3),
	}}
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func f32From3(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}
