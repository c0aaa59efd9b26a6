package render

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/mcubes"
	"github.com/soypat/mcubes/field"
	"github.com/soypat/mcubes/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

var errSampling = errors.New("sampling failed")

// failingField wraps a field and fails every evaluation after the first `after`.
type failingField struct {
	mcubes.Field
	after int
	n     int
}

func (f *failingField) Evaluate(p r3.Vec) (float64, error) {
	f.n++
	if f.n > f.after {
		return 0, errSampling
	}
	return f.Field.Evaluate(p)
}

func unitBox() r3.Box {
	return r3.Box{Max: d3.Elem(1)}
}

func newSphere(t testing.TB, center r3.Vec, radius float64) *field.Sphere {
	s, err := field.NewSphere(center, radius)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGridCounts(t *testing.T) {
	for _, test := range []struct {
		bb         r3.Box
		size       float64
		align      int
		nx, ny, nz int
	}{
		{bb: unitBox(), size: 0.25, align: 1, nx: 4, ny: 4, nz: 4},
		{bb: r3.Box{Max: r3.Vec{X: 1, Y: 0.5, Z: 0.3}}, size: 0.2, align: 1, nx: 5, ny: 3, nz: 2},
		{bb: r3.Box{Max: r3.Vec{X: 1, Y: 0.5, Z: 0.3}}, size: 0.2, align: 4, nx: 8, ny: 4, nz: 4},
		{bb: r3.Box{Min: d3.Elem(-5), Max: d3.Elem(5)}, size: 1, align: 1, nx: 10, ny: 10, nz: 10},
		// Zero extent along an axis has no volume.
		{bb: r3.Box{Max: r3.Vec{X: 1, Y: 1}}, size: 0.1, align: 1},
		{bb: r3.Box(d3.EmptyBox()), size: 0.1, align: 1},
	} {
		g, err := NewGrid(test.bb, test.size, test.align)
		if err != nil {
			t.Fatal(err)
		}
		nx, ny, nz := g.Counts()
		if nx != test.nx || ny != test.ny || nz != test.nz {
			t.Errorf("grid over %v size %g align %d: got counts %d,%d,%d want %d,%d,%d",
				test.bb, test.size, test.align, nx, ny, nz, test.nx, test.ny, test.nz)
		}
		if g.Len() != test.nx*test.ny*test.nz {
			t.Errorf("got grid length %d", g.Len())
		}
		if g.Len() == 0 {
			continue
		}
		for _, axis := range [][]float64{g.X, g.Y, g.Z} {
			for i := 1; i < len(axis); i++ {
				if !(axis[i] > axis[i-1]) {
					t.Fatalf("axis samples not strictly increasing: %v", axis)
				}
			}
		}
		// The grid never covers less than the requested box.
		gb := g.Bounds()
		if !boxContains(gb, test.bb.Min) || !boxContains(gb, test.bb.Max) {
			t.Errorf("grid bounds %v do not cover %v", gb, test.bb)
		}
	}
}

func TestGridBadInput(t *testing.T) {
	for _, size := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewGrid(unitBox(), size, 1)
		if !errors.Is(err, ErrBadCubeSize) {
			t.Errorf("cube size %g: got error %v", size, err)
		}
	}
	_, err := NewGrid(r3.Box{Max: d3.Elem(1e6)}, 1e-3, 1)
	if !errors.Is(err, ErrGridTooLarge) {
		t.Errorf("expected grid too large, got %v", err)
	}
}

func TestGridCubeCornerOrder(t *testing.T) {
	g, err := NewGrid(r3.Box{Min: r3.Vec{X: 1, Y: 2, Z: 3}, Max: r3.Vec{X: 3, Y: 4, Z: 5}}, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := Cube{
		{X: 1, Y: 2, Z: 3},
		{X: 1, Y: 4, Z: 3},
		{X: 3, Y: 4, Z: 3},
		{X: 3, Y: 2, Z: 3},
		{X: 1, Y: 2, Z: 5},
		{X: 1, Y: 4, Z: 5},
		{X: 3, Y: 4, Z: 5},
		{X: 3, Y: 2, Z: 5},
	}
	if got := g.Cube(0, 0, 0); got != want {
		t.Errorf("bad corner order\ngot  %v\nwant %v", got, want)
	}
}

func TestCubeIter(t *testing.T) {
	g, err := NewGrid(r3.Box{Max: r3.Vec{X: 3, Y: 2, Z: 4}}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	it := g.Cubes()
	var prev Cube
	n := 0
	for c, ok := it.Next(); ok; c, ok = it.Next() {
		if n > 0 {
			// z varies fastest, x slowest.
			if c[0].X < prev[0].X || (c[0].X == prev[0].X && c[0].Y < prev[0].Y) {
				t.Fatalf("cube %d out of order: %v after %v", n, c[0], prev[0])
			}
		}
		prev = c
		n++
	}
	if n != g.Len() || it.Visited() != n {
		t.Errorf("visited %d cubes (counter %d), grid has %d", n, it.Visited(), g.Len())
	}
	it.Reset()
	c, ok := it.Next()
	if !ok || c != g.Cube(0, 0, 0) {
		t.Error("reset did not restart iteration")
	}
	var empty Grid
	if _, ok := empty.Cubes().Next(); ok {
		t.Error("empty grid yielded a cube")
	}
}

func TestWorkingArea(t *testing.T) {
	if got := WorkingArea(nil, 5); !d3.Box(got).Empty() {
		t.Errorf("no sources must give an empty area, got %v", got)
	}
	// The per axis extremes come from different sources.
	srcs := []mcubes.Source{
		{Position: r3.Vec{X: 10, Y: -1, Z: 0}, Radius: 1},
		{Position: r3.Vec{X: 0, Y: 3, Z: -4}, Radius: 0.5},
	}
	got := WorkingArea(srcs, 2)
	want := r3.Box{Min: r3.Vec{X: -1, Y: -3, Z: -5}, Max: r3.Vec{X: 12, Y: 4, Z: 2}}
	if !boxEqual(got, want, 1e-12) {
		t.Errorf("got area %v, want %v", got, want)
	}
	// Zero padding gives the tight box of source positions.
	got = WorkingArea(srcs, 0)
	want = r3.Box{Min: r3.Vec{X: 0, Y: -1, Z: -4}, Max: r3.Vec{X: 10, Y: 3, Z: 0}}
	if got != want {
		t.Errorf("got area %v, want %v", got, want)
	}
}

func TestCubeConfig(t *testing.T) {
	var vals [8]float64
	if CubeConfig(vals) != 0 {
		t.Error("zero samples are outside")
	}
	for i := range vals {
		vals[i] = 1
	}
	if CubeConfig(vals) != 255 {
		t.Error("positive samples are inside")
	}
	vals = [8]float64{-1, 2, -3, 0, 0.5, -1, -1, 1e-9}
	if got := CubeConfig(vals); got != 0b10010010 {
		t.Errorf("got configuration %08b", got)
	}
}

func TestMarchUniformCubes(t *testing.T) {
	g, _ := NewGrid(unitBox(), 1, 1)
	for _, v := range []float64{-1, 0, 1} {
		v := v
		f := field.Func{F: func(r3.Vec) float64 { return v }}
		var m Mesh
		n, err := March(&m, f, g.Cube(0, 0, 0), 1e-3)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 || !m.IsEmpty() {
			t.Errorf("uniform field %g produced %d triangles", v, n)
		}
	}
}

func TestMarchSingleCorner(t *testing.T) {
	g, _ := NewGrid(unitBox(), 1, 1)
	// Only the origin corner is inside. The field is flat elsewhere so
	// normals fall back to the zero vector.
	f := field.Func{F: func(p r3.Vec) float64 {
		if p == (r3.Vec{}) {
			return 1
		}
		return -1
	}}
	var m Mesh
	n, err := March(&m, f, g.Cube(0, 0, 0), 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || m.TriangleCount() != 1 || m.VertexCount() != 3 {
		t.Fatalf("expected a single triangle, got %d", n)
	}
	want := map[r3.Vec]bool{
		{Y: 0.5}: true,
		{X: 0.5}: true,
		{Z: 0.5}: true,
	}
	for i, v := range m.Vertices {
		if !want[v] {
			t.Errorf("unexpected vertex %v", v)
		}
		if m.Normals[i] != (r3.Vec{}) {
			t.Errorf("flat field must give zero normal, got %v", m.Normals[i])
		}
	}
	if err := m.Validate(); err != nil {
		t.Error(err)
	}
}

func TestEdgeCrossingDegenerate(t *testing.T) {
	g, _ := NewGrid(unitBox(), 1, 1)
	c := g.Cube(0, 0, 0)
	mid := r3.Vec{Y: 0.5}
	for _, vals := range [][8]float64{
		{1, 1},
		{0, 0},
		{math.NaN(), 1},
	} {
		vals := vals
		if got := edgeCrossing(&c, &vals, 0); got != mid {
			t.Errorf("samples %v: got %v, want midpoint %v", vals[:2], got, mid)
		}
	}
	// Crossing follows t = s[b]/(s[b]-s[a]) measured from corner b.
	vals := [8]float64{3, -1}
	got := edgeCrossing(&c, &vals, 0)
	if !d3.EqualWithin(got, r3.Vec{Y: 0.75}, 1e-15) {
		t.Errorf("got crossing %v", got)
	}
}

func TestNormal(t *testing.T) {
	s := newSphere(t, r3.Vec{X: 1}, 2)
	for _, dir := range []r3.Vec{{X: 1}, {Y: -1}, r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1})} {
		p := r3.Add(s.Center, r3.Scale(s.Radius, dir))
		n, err := Normal(s, p, 1e-4)
		if err != nil {
			t.Fatal(err)
		}
		if !d3.EqualWithin(n, dir, 1e-6) {
			t.Errorf("normal at %v: got %v, want %v", p, n, dir)
		}
	}
	n, err := Normal(field.Func{F: func(r3.Vec) float64 { return 2 }}, r3.Vec{}, 1e-3)
	if err != nil || n != (r3.Vec{}) {
		t.Errorf("constant field: got normal %v and error %v", n, err)
	}
}

func TestMarchErrorPropagation(t *testing.T) {
	g, _ := NewGrid(r3.Box{Min: d3.Elem(-0.5), Max: d3.Elem(0.5)}, 1, 1)
	// Only the first corner lies inside the sphere.
	s := newSphere(t, d3.Elem(-0.5), 0.6)
	for _, after := range []int{0, 7, 8} {
		// after=8 fails while estimating the first normal.
		f := &failingField{Field: s, after: after}
		var m Mesh
		_, err := March(&m, f, g.Cube(0, 0, 0), 1e-3)
		if !errors.Is(err, errSampling) {
			t.Errorf("after %d evaluations: expected sampling error, got %v", after, err)
		}
	}
}

func boxEqual(a, b r3.Box, tol float64) bool {
	return d3.EqualWithin(a.Min, b.Min, tol) && d3.EqualWithin(a.Max, b.Max, tol)
}

func boxCenter(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

func boxContains(b r3.Box, v r3.Vec) bool {
	return b.Min.X <= v.X && b.Min.Y <= v.Y && b.Min.Z <= v.Z &&
		v.X <= b.Max.X && v.Y <= b.Max.Y && v.Z <= b.Max.Z
}
