// Package mcubes defines the scalar field contracts consumed by the
// marching cubes mesh extractor in package render.
//
// Fields follow a single sign convention throughout the module: a positive
// sample is inside the surface, a zero or negative sample is outside.
// The surface being extracted is the zero isosurface of the field.
package mcubes

import (
	"errors"
	"fmt"

	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNilField is returned when a nil field is handed to an operation.
var ErrNilField = errors.New("nil field")

// Field is a scalar field sampled on a point in space.
type Field interface {
	// Evaluate samples the field at p. Positive values are inside the surface.
	Evaluate(p r3.Vec) (float64, error)
	// Sources returns the influence sources of the field. They are only used
	// to derive the region of space that must be sampled.
	Sources() []Source
}

// Animated is a Field whose influence sources move over time.
type Animated interface {
	Field
	// Advance moves the field one simulation step forward. It must not be
	// called while the field is being sampled.
	Advance()
}

// BatchField implements a scalar field in vectorized form suitable for
// evaluation of many points in one call, such as a GPU dispatch.
type BatchField interface {
	// Evaluate samples the field over pos positions and stores the results
	// in dist. pos and dist must be of same length.
	//
	// userData facilitates getting data to the evaluators for use in processing.
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
	Sources() []Source
}

// Source is a contributor to the field whose position and radius
// bound the region of space where the field may cross zero.
type Source struct {
	Position r3.Vec
	Radius   float64
}

// Batched returns a BatchField that evaluates f point by point.
func Batched(f Field) BatchField {
	if f == nil {
		panic(ErrNilField)
	}
	return batched{f: f}
}

type batched struct {
	f Field
}

func (b batched) Evaluate(pos []ms3.Vec, dist []float32, _ any) error {
	if len(pos) != len(dist) {
		return fmt.Errorf("position and distance buffers length mismatch: %d != %d", len(pos), len(dist))
	}
	for i, p := range pos {
		v, err := b.f.Evaluate(r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)})
		if err != nil {
			return err
		}
		dist[i] = float32(v)
	}
	return nil
}

func (b batched) Sources() []Source { return b.f.Sources() }
