package render

import (
	"fmt"
	"math"

	"github.com/soypat/mcubes"
	"github.com/soypat/mcubes/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// March samples f at the 8 corners of c, classifies the cube against the
// marching cubes configurations and appends the resulting triangles and
// their vertex normals to dst. It returns the amount of triangles appended.
// A field evaluation error aborts the cube and leaves dst holding a partial
// result which should be discarded.
func March(dst *Mesh, f mcubes.Field, c Cube, normalDelta float64) (int, error) {
	var vals [8]float64
	for i := range c {
		v, err := f.Evaluate(c[i])
		if err != nil {
			return 0, sampleErr(c[i], err)
		}
		vals[i] = v
	}
	return marchValues(dst, f, &c, &vals, normalDelta)
}

// CubeConfig returns the configuration index of a cube from its corner samples.
// Bit i is set when corner i is inside the surface.
func CubeConfig(vals [8]float64) int {
	config := 0
	for i, v := range vals {
		if v > 0 {
			config |= 1 << i
		}
	}
	return config
}

// marchValues triangulates a cube whose corners have already been sampled.
func marchValues(dst *Mesh, f mcubes.Field, c *Cube, vals *[8]float64, normalDelta float64) (int, error) {
	config := CubeConfig(*vals)
	ntri := int(mcTriangleCount[config])
	if ntri == 0 {
		return 0, nil
	}
	edges := mcTriangleTable[config]
	if len(edges) != 3*ntri {
		panic(fmt.Sprintf("corrupted marching cubes table at configuration %d", config))
	}
	var tri, normals [3]r3.Vec
	var err error
	for t := 0; t < ntri; t++ {
		for i := 0; i < 3; i++ {
			tri[i] = edgeCrossing(c, vals, int(edges[3*t+i]))
			normals[i], err = Normal(f, tri[i], normalDelta)
			if err != nil {
				return t, err
			}
		}
		dst.AddTriangle(tri, normals)
	}
	return ntri, nil
}

// edgeCrossing returns the point along edge where the linear interpolation of
// the corner samples is zero. Equal samples place the point at the edge midpoint.
func edgeCrossing(c *Cube, vals *[8]float64, edge int) r3.Vec {
	pair := mcEdgeCorners[edge]
	a, b := pair[0], pair[1]
	sa, sb := vals[a], vals[b]
	t := 0.5
	if denom := sb - sa; denom != 0 {
		t = sb / denom
	}
	if math.IsNaN(t) {
		t = 0.5
	} else if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return d3.Lerp(c[b], c[a], t)
}

// Normal estimates the outward surface normal at p as the negated and
// normalized field gradient, computed with central differences of step delta.
// A zero gradient yields the zero vector.
func Normal(f mcubes.Field, p r3.Vec, delta float64) (r3.Vec, error) {
	var g [3]float64
	offsets := [3]r3.Vec{{X: delta}, {Y: delta}, {Z: delta}}
	for i, d := range offsets {
		pp := r3.Add(p, d)
		fp, err := f.Evaluate(pp)
		if err != nil {
			return r3.Vec{}, sampleErr(pp, err)
		}
		pm := r3.Sub(p, d)
		fm, err := f.Evaluate(pm)
		if err != nil {
			return r3.Vec{}, sampleErr(pm, err)
		}
		g[i] = fp - fm
	}
	grad := r3.Vec{X: g[0], Y: g[1], Z: g[2]}
	norm := r3.Norm(grad)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return r3.Vec{}, nil
	}
	return r3.Scale(-1/norm, grad), nil
}

func sampleErr(p r3.Vec, err error) error {
	return fmt.Errorf("sampling field at (%g,%g,%g): %w", p.X, p.Y, p.Z, err)
}
