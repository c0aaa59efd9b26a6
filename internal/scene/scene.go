// Package scene reads metaball scenes from INI files.
package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/soypat/mcubes/field"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/gcfg.v1"
)

const ExampleSceneFile = `[Scene]
# Simulation time advanced on every step. Overrides the configured dt when set.
# Dt = 0.05

[Ball "core"]
# Rest position of the ball center.
X = 0
Y = 0
Z = 0

Radius = 1

#######################
# Optional Parameters #
#######################

# Orbit half extents along each axis. Position along x and z follows
# sin(Frequency*t + Phase), along y it follows cos(Frequency*t + Phase).
# AmplitudeX = 1.5
# AmplitudeY = 0
# AmplitudeZ = 0

# Angular frequency in radians per unit time.
# Frequency = 1

# Orbit phase in radians.
# Phase = 0`

// defaultScene are three balls merging and splitting over time.
const defaultScene = `[Ball "core"]
Radius = 1

[Ball "orbiter"]
X = 0.5
Radius = 0.7
AmplitudeX = 1.6
AmplitudeZ = 0.4
Frequency = 1.3

[Ball "bobber"]
Z = 0.3
Radius = 0.6
AmplitudeY = 1.4
Frequency = 0.8
Phase = 1.5`

// BallConfig is a single [Ball "name"] section.
type BallConfig struct {
	// Required
	X, Y, Z, Radius float64

	// Optional
	AmplitudeX, AmplitudeY, AmplitudeZ float64
	Frequency, Phase                   float64

	Name string
}

// CheckInit validates the ball and sets its name.
func (ball *BallConfig) CheckInit(name string) error {
	if !(ball.Radius > 0) || math.IsInf(ball.Radius, 1) {
		return fmt.Errorf("need to specify a positive radius for Ball '%s', got %g", name, ball.Radius)
	}
	for _, v := range []float64{ball.X, ball.Y, ball.Z, ball.AmplitudeX, ball.AmplitudeY,
		ball.AmplitudeZ, ball.Frequency, ball.Phase} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("Ball '%s' has a non finite parameter", name)
		}
	}
	ball.Name = name
	return nil
}

// Ball converts the configuration to a metaball.
func (ball *BallConfig) Ball() field.Ball {
	return field.Ball{
		Name:      ball.Name,
		Rest:      r3.Vec{X: ball.X, Y: ball.Y, Z: ball.Z},
		Radius:    ball.Radius,
		Amplitude: r3.Vec{X: ball.AmplitudeX, Y: ball.AmplitudeY, Z: ball.AmplitudeZ},
		Frequency: ball.Frequency,
		Phase:     ball.Phase,
	}
}

// SceneConfig is the optional [Scene] section.
type SceneConfig struct {
	Dt float64
}

// Config is the contents of a scene file.
type Config struct {
	Scene SceneConfig
	Ball  map[string]*BallConfig
}

// Scene is a validated scene.
type Scene struct {
	// Balls sorted by name so a scene file always produces the same field.
	Balls []field.Ball
	// Dt is the scene's time step, zero if not set.
	Dt float64
}

// ReadFile reads and validates a scene file.
func ReadFile(fname string) (*Scene, error) {
	var sc Config
	if err := gcfg.ReadFileInto(&sc, fname); err != nil {
		return nil, err
	}
	return sc.build()
}

// ReadString reads and validates a scene from its INI text.
func ReadString(s string) (*Scene, error) {
	var sc Config
	if err := gcfg.ReadStringInto(&sc, s); err != nil {
		return nil, err
	}
	return sc.build()
}

// Default returns the built in scene.
func Default() *Scene {
	s, err := ReadString(defaultScene)
	if err != nil {
		panic(err)
	}
	return s
}

func (sc *Config) build() (*Scene, error) {
	if len(sc.Ball) == 0 {
		return nil, fmt.Errorf("scene has no Ball sections")
	}
	if math.IsNaN(sc.Scene.Dt) || math.IsInf(sc.Scene.Dt, 0) {
		return nil, fmt.Errorf("scene Dt must be finite")
	}
	names := make([]string, 0, len(sc.Ball))
	for name := range sc.Ball {
		names = append(names, name)
	}
	sort.Strings(names)
	s := &Scene{Dt: sc.Scene.Dt}
	for _, name := range names {
		ball := sc.Ball[name]
		if err := ball.CheckInit(name); err != nil {
			return nil, err
		}
		s.Balls = append(s.Balls, ball.Ball())
	}
	return s, nil
}

// Metaballs returns the animated field of the scene. The scene's own time
// step takes precedence over dt when set.
func (s *Scene) Metaballs(dt float64) (*field.Metaballs, error) {
	if s.Dt != 0 {
		dt = s.Dt
	}
	return field.NewMetaballs(s.Balls, dt)
}
