package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestExampleScene(t *testing.T) {
	s, err := ReadString(ExampleSceneFile)
	require.NoError(t, err)
	require.Len(t, s.Balls, 1)
	b := s.Balls[0]
	assert.Equal(t, "core", b.Name)
	assert.Equal(t, 1.0, b.Radius)
	assert.Equal(t, r3.Vec{}, b.Amplitude)
	assert.Equal(t, 0.0, s.Dt)
}

func TestDefaultScene(t *testing.T) {
	s := Default()
	require.Len(t, s.Balls, 3)
	// Sorted by name.
	assert.Equal(t, "bobber", s.Balls[0].Name)
	assert.Equal(t, "core", s.Balls[1].Name)
	assert.Equal(t, "orbiter", s.Balls[2].Name)
	assert.Equal(t, r3.Vec{X: 1.6, Z: 0.4}, s.Balls[2].Amplitude)

	f, err := s.Metaballs(0.1)
	require.NoError(t, err)
	assert.Len(t, f.Sources(), 3)
	f.Advance()
	assert.Equal(t, 0.1, f.Time())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.ini")
	content := `[Scene]
Dt = 0.25

[Ball "b"]
X = 1
Y = -2
Z = 3
Radius = 0.5
AmplitudeY = 2
Frequency = 3.5
Phase = 0.1

[Ball "a"]
Radius = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	s, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, s.Balls, 2)
	assert.Equal(t, 0.25, s.Dt)

	b := s.Balls[1]
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, r3.Vec{X: 1, Y: -2, Z: 3}, b.Rest)
	assert.Equal(t, r3.Vec{Y: 2}, b.Amplitude)
	assert.Equal(t, 3.5, b.Frequency)
	assert.Equal(t, 0.1, b.Phase)

	// Scene time step wins over the caller's.
	f, err := s.Metaballs(1)
	require.NoError(t, err)
	f.Advance()
	assert.Equal(t, 0.25, f.Time())
}

func TestReadErrors(t *testing.T) {
	for name, text := range map[string]string{
		"no balls":       "[Scene]\nDt = 1\n",
		"missing radius": "[Ball \"x\"]\nX = 1\n",
		"negative":       "[Ball \"x\"]\nRadius = -1\n",
		"unknown var":    "[Ball \"x\"]\nRadius = 1\nColor = red\n",
		"bad number":     "[Ball \"x\"]\nRadius = big\n",
	} {
		_, err := ReadString(text)
		assert.Error(t, err, name)
	}
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}
