// Package field implements scalar fields for isosurface extraction. All
// fields are positive inside the surface and non-positive outside.
package field

import (
	"errors"
	"math"

	"github.com/soypat/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ mcubes.Field    = (*Sphere)(nil)
	_ mcubes.Field    = Func{}
	_ mcubes.Animated = (*Metaballs)(nil)
)

// Sphere is the field r - |p - c| of a sphere of radius r centered at c.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// NewSphere returns a sphere field. radius must be positive.
func NewSphere(center r3.Vec, radius float64) (*Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return nil, errors.New("sphere radius must be positive and finite")
	}
	return &Sphere{Center: center, Radius: radius}, nil
}

func (s *Sphere) Evaluate(p r3.Vec) (float64, error) {
	return s.Radius - r3.Norm(r3.Sub(p, s.Center)), nil
}

func (s *Sphere) Sources() []mcubes.Source {
	return []mcubes.Source{{Position: s.Center, Radius: s.Radius}}
}

// Func is a field defined by an arbitrary function. Sampling never fails.
type Func struct {
	F    func(p r3.Vec) float64
	Srcs []mcubes.Source
}

func (f Func) Evaluate(p r3.Vec) (float64, error) { return f.F(p), nil }

func (f Func) Sources() []mcubes.Source { return f.Srcs }
