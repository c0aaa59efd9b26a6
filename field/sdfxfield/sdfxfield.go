// Package sdfxfield adapts github.com/deadsy/sdfx signed distance
// functions to the mcubes.Field interface.
package sdfxfield

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ mcubes.Field = (*Shape)(nil)

// Shape wraps an sdf.SDF3. sdfx distances are negative inside a solid so
// the sign is flipped to match the module's positive inside convention.
type Shape struct {
	s sdf.SDF3
}

// New wraps s as a field.
func New(s sdf.SDF3) (*Shape, error) {
	if s == nil {
		return nil, mcubes.ErrNilField
	}
	return &Shape{s: s}, nil
}

// Evaluate returns the negated signed distance of p to the solid.
func (sh *Shape) Evaluate(p r3.Vec) (float64, error) {
	return -sh.s.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z}), nil
}

// Sources returns a single source at the center of the solid's bounding
// box with half the box diagonal as radius, so a padding of 1 covers it.
func (sh *Shape) Sources() []mcubes.Source {
	bb := sh.s.BoundingBox()
	min := r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z}
	max := r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z}
	return []mcubes.Source{{
		Position: r3.Scale(0.5, r3.Add(min, max)),
		Radius:   0.5 * r3.Norm(r3.Sub(max, min)),
	}}
}

// Sphere returns a sphere field built with sdfx.
func Sphere(radius float64) (*Shape, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, err
	}
	return New(s)
}

// Box returns a box field of the given size and edge rounding built with sdfx.
func Box(size r3.Vec, round float64) (*Shape, error) {
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, round)
	if err != nil {
		return nil, err
	}
	return New(s)
}
