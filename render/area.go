package render

import (
	"github.com/soypat/mcubes"
	"github.com/soypat/mcubes/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// WorkingArea returns the axis aligned box enclosing every source position
// enlarged by padding times the source radius along each axis. If there are
// no sources the returned box is empty (Min is +Inf and Max is -Inf) and
// yields a grid with no cubes.
func WorkingArea(sources []mcubes.Source, padding float64) r3.Box {
	bb := d3.EmptyBox()
	for _, src := range sources {
		size := d3.Elem(2 * padding * src.Radius)
		bb = bb.Extend(d3.NewBox(src.Position, size))
	}
	return r3.Box(bb)
}
