// Package preview rasterizes meshes to images in software.
package preview

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/mcubes/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// View describes the camera. The mesh is fit in a bi-unit cube centered at
// the origin before rendering, so positions are in those units.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// camera position
	Eye r3.Vec
	// Vertical field of view in degrees.
	Fovy float64
	// Clipping planes.
	Near, Far float64
}

// Options configures a preview render.
type Options struct {
	Width, Height int
	// Supersample renders at this multiple of the output size and
	// downsamples for antialiasing.
	Supersample int
	View        View
	Color       string // Object color as hex.
	Background  string // Background color as hex.
}

// DefaultOptions returns a square isometric view.
func DefaultOptions(size int) Options {
	return Options{
		Width:       size,
		Height:      size,
		Supersample: 2,
		View: View{
			Up:   r3.Vec{Z: 1},
			Eye:  r3.Vec{X: 3, Y: 3, Z: 3},
			Fovy: 30,
			Near: 1,
			Far:  10,
		},
		Color:      "#468966",
		Background: "#FFF8E3",
	}
}

// Mesh renders m using its vertex normals for shading.
func Mesh(m *render.Mesh, opts Options) (image.Image, error) {
	if m.IsEmpty() {
		return nil, render.ErrEmptyMesh
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	tris := make([]*fauxgl.Triangle, m.TriangleCount())
	for i := range tris {
		idx := m.Indices[3*i : 3*i+3]
		var v [3]fauxgl.Vertex
		for j := range v {
			v[j] = fauxgl.Vertex{
				Position: vector(m.Vertices[idx[j]]),
				Normal:   vector(m.Normals[idx[j]]),
			}
		}
		tris[i] = fauxgl.NewTriangle(v[0], v[1], v[2])
	}
	return draw(fauxgl.NewTriangleMesh(tris), opts)
}

// STL renders the STL file at path.
func STL(path string, opts Options) (image.Image, error) {
	mesh, err := fauxgl.LoadSTL(path)
	if err != nil {
		return nil, err
	}
	return draw(mesh, opts)
}

// WritePNG renders m and saves it as a PNG file.
func WritePNG(path string, m *render.Mesh, opts Options) error {
	img, err := Mesh(m, opts)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func draw(mesh *fauxgl.Mesh, opts Options) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("preview size must be positive")
	}
	scale := opts.Supersample
	if scale < 1 {
		scale = 1
	}
	view := opts.View
	var (
		eye    = vector(view.Eye)
		center = vector(view.LookAt)
		up     = vector(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor(opts.Color)
	)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(opts.Width*scale, opts.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(opts.Background))
	aspect := float64(opts.Width) / float64(opts.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

func vector(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
