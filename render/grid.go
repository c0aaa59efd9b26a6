package render

import (
	"errors"
	"math"

	"github.com/soypat/mcubes/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxGridCubes limits the amount of cubes a single grid may hold.
const maxGridCubes = 1 << 30

var (
	ErrBadCubeSize  = errors.New("cube size must be positive and finite")
	ErrGridTooLarge = errors.New("grid exceeds maximum amount of cubes")
)

// Cube holds the 8 corners of a grid cell in marching cubes corner order.
type Cube [8]r3.Vec

// Grid is a uniform lattice of cubes covering a working area. It is defined
// solely by its axis sample coordinates; cubes are generated on demand.
type Grid struct {
	// Axis sample coordinates. Each holds count+1 strictly increasing values
	// starting at the working area minimum and spaced by the cube size.
	X, Y, Z []float64
	size    float64
}

// NewGrid subdivides bb into cubes of side cubeSize. The cube count along
// each axis is ceil(extent/cubeSize), rounded up to a multiple of align when
// align > 1, so the grid may extend past bb but never covers less. An empty
// or zero volume bb results in a grid with no cubes.
func NewGrid(bb r3.Box, cubeSize float64, align int) (Grid, error) {
	if !(cubeSize > 0) || math.IsInf(cubeSize, 1) {
		return Grid{}, ErrBadCubeSize
	}
	g := Grid{size: cubeSize}
	box := d3.Box(bb)
	if box.Empty() {
		return g, nil
	}
	sz := box.Size()
	nx := alignUp(cubeCount(sz.X, cubeSize), align)
	ny := alignUp(cubeCount(sz.Y, cubeSize), align)
	nz := alignUp(cubeCount(sz.Z, cubeSize), align)
	if nx == 0 || ny == 0 || nz == 0 {
		return g, nil
	}
	if float64(nx)*float64(ny)*float64(nz) > maxGridCubes {
		return Grid{}, ErrGridTooLarge
	}
	g.X = axisSamples(box.Min.X, cubeSize, nx)
	g.Y = axisSamples(box.Min.Y, cubeSize, ny)
	g.Z = axisSamples(box.Min.Z, cubeSize, nz)
	return g, nil
}

// Counts returns the amount of cubes along each axis.
func (g Grid) Counts() (nx, ny, nz int) {
	if len(g.X) == 0 {
		return 0, 0, 0
	}
	return len(g.X) - 1, len(g.Y) - 1, len(g.Z) - 1
}

// Len returns the total amount of cubes in the grid.
func (g Grid) Len() int {
	nx, ny, nz := g.Counts()
	return nx * ny * nz
}

// CubeSize returns the side length of the grid's cubes.
func (g Grid) CubeSize() float64 { return g.size }

// Bounds returns the box covered by the grid's cubes.
func (g Grid) Bounds() r3.Box {
	if g.Len() == 0 {
		return r3.Box(d3.EmptyBox())
	}
	return r3.Box{
		Min: r3.Vec{X: g.X[0], Y: g.Y[0], Z: g.Z[0]},
		Max: r3.Vec{X: g.X[len(g.X)-1], Y: g.Y[len(g.Y)-1], Z: g.Z[len(g.Z)-1]},
	}
}

// Cube returns the cube with minimum corner at sample (i,j,k).
func (g Grid) Cube(i, j, k int) Cube {
	x0, x1 := g.X[i], g.X[i+1]
	y0, y1 := g.Y[j], g.Y[j+1]
	z0, z1 := g.Z[k], g.Z[k+1]
	return Cube{
		{X: x0, Y: y0, Z: z0},
		{X: x0, Y: y1, Z: z0},
		{X: x1, Y: y1, Z: z0},
		{X: x1, Y: y0, Z: z0},
		{X: x0, Y: y0, Z: z1},
		{X: x0, Y: y1, Z: z1},
		{X: x1, Y: y1, Z: z1},
		{X: x1, Y: y0, Z: z1},
	}
}

// Cubes returns an iterator over every cube of the grid. Cubes are visited
// with x outermost and z innermost.
func (g *Grid) Cubes() *CubeIter {
	return &CubeIter{g: g}
}

// CubeIter iterates over the cubes of a Grid. It can be restarted with Reset.
type CubeIter struct {
	g     *Grid
	i, j  int
	k     int
	count int
}

// Next returns the next cube and true, or false once all cubes have been visited.
func (it *CubeIter) Next() (Cube, bool) {
	nx, ny, nz := it.g.Counts()
	if it.i >= nx || ny == 0 || nz == 0 {
		return Cube{}, false
	}
	c := it.g.Cube(it.i, it.j, it.k)
	it.count++
	it.k++
	if it.k == nz {
		it.k = 0
		it.j++
		if it.j == ny {
			it.j = 0
			it.i++
		}
	}
	return c, true
}

// Visited returns the amount of cubes returned by Next since the last Reset.
func (it *CubeIter) Visited() int { return it.count }

// Reset restarts iteration from the first cube.
func (it *CubeIter) Reset() {
	it.i, it.j, it.k, it.count = 0, 0, 0, 0
}

func cubeCount(extent, size float64) int {
	if !(extent > 0) {
		return 0
	}
	n := math.Ceil(extent / size)
	if n > maxGridCubes {
		return maxGridCubes + 1 // Caught by grid size check.
	}
	return int(n)
}

func alignUp(n, align int) int {
	if align <= 1 || n == 0 {
		return n
	}
	return (n + align - 1) / align * align
}

func axisSamples(start, size float64, n int) []float64 {
	s := make([]float64, n+1)
	for i := range s {
		s[i] = start + float64(i)*size
	}
	return s
}
