package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ball is a single metaball. Its center orbits around Rest: along each axis
// it is displaced by the Amplitude component times sin (x, z) or cos (y)
// of Frequency*t + Phase.
type Ball struct {
	Name      string
	Rest      r3.Vec
	Radius    float64
	Amplitude r3.Vec
	Frequency float64 // Radians per unit time.
	Phase     float64 // Radians.
}

// Metaballs is the animated field
//
//	F(p) = sum_i (r_i / |p - c_i|)^2 - 1
//
// which, for an isolated ball, is zero on the sphere of radius r_i around c_i.
// Nearby balls blend into a single surface.
type Metaballs struct {
	balls []Ball
	pos   []r3.Vec
	t     float64
	dt    float64
}

// NewMetaballs returns a metaball field at time zero. Each call to Advance
// moves time forward by dt.
func NewMetaballs(balls []Ball, dt float64) (*Metaballs, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, errors.New("metaball time step must be finite")
	}
	for i, b := range balls {
		if !(b.Radius > 0) || math.IsInf(b.Radius, 1) {
			return nil, fmt.Errorf("ball %d (%q) radius must be positive and finite, got %g", i, b.Name, b.Radius)
		}
	}
	m := &Metaballs{
		balls: append([]Ball(nil), balls...),
		pos:   make([]r3.Vec, len(balls)),
		dt:    dt,
	}
	m.place()
	return m, nil
}

func (m *Metaballs) Evaluate(p r3.Vec) (float64, error) {
	sum := 0.0
	for i, b := range m.balls {
		r2 := b.Radius * b.Radius
		d2 := r3.Norm2(r3.Sub(p, m.pos[i]))
		// Bound the influence at the ball center.
		if d2 < 1e-12*r2 {
			d2 = 1e-12 * r2
		}
		sum += r2 / d2
	}
	return sum - 1, nil
}

func (m *Metaballs) Sources() []mcubes.Source {
	srcs := make([]mcubes.Source, len(m.balls))
	for i, b := range m.balls {
		srcs[i] = mcubes.Source{Position: m.pos[i], Radius: b.Radius}
	}
	return srcs
}

// Advance moves every ball along its orbit by one time step.
func (m *Metaballs) Advance() {
	m.t += m.dt
	m.place()
}

// Time returns the field's current simulation time.
func (m *Metaballs) Time() float64 { return m.t }

// Positions returns the current ball centers.
func (m *Metaballs) Positions() []r3.Vec {
	return append([]r3.Vec(nil), m.pos...)
}

func (m *Metaballs) place() {
	for i, b := range m.balls {
		arg := b.Frequency*m.t + b.Phase
		m.pos[i] = r3.Vec{
			X: b.Rest.X + b.Amplitude.X*math.Sin(arg),
			Y: b.Rest.Y + b.Amplitude.Y*math.Cos(arg),
			Z: b.Rest.Z + b.Amplitude.Z*math.Sin(arg),
		}
	}
}
