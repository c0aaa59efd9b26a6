package render

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestMarchingCubes(t *testing.T) {
	max := 0
	for _, tri := range mcTriangleTable {
		if len(tri) > max {
			max = len(tri)
		}
	}
	got := max / 3
	if got != marchingCubesMaxTriangles {
		t.Errorf("mismatch marching cubes max triangles. got %d. want %d", got, marchingCubesMaxTriangles)
	}
}

func TestTriangleTableConsistency(t *testing.T) {
	for config := 0; config < 256; config++ {
		edges := mcTriangleTable[config]
		if len(edges)%3 != 0 {
			t.Fatalf("configuration %d has %d edges, not a multiple of 3", config, len(edges))
		}
		if got := TriangleCount(config); got != len(edges)/3 {
			t.Errorf("configuration %d: triangle count %d, table holds %d triangles", config, got, len(edges)/3)
		}
		used := map[int]bool{}
		for _, e := range edges {
			if e > 11 {
				t.Fatalf("configuration %d references edge %d", config, e)
			}
			used[int(e)] = true
		}
		// Triangles must be bounded by exactly the edges that cross the surface.
		for e := 0; e < 12; e++ {
			a, b := EdgeCorners(e)
			active := (config>>a)&1 != (config>>b)&1
			if active != used[e] {
				t.Errorf("configuration %d edge %d: active=%v used=%v", config, e, active, used[e])
			}
		}
		for tri := 0; tri < TriangleCount(config); tri++ {
			edges := TriangleEdges(config, tri)
			if edges[0] == edges[1] || edges[1] == edges[2] || edges[0] == edges[2] {
				t.Errorf("configuration %d triangle %d repeats an edge: %v", config, tri, edges)
			}
		}
	}
	if TriangleCount(0) != 0 || TriangleCount(255) != 0 {
		t.Error("fully outside and fully inside cubes must not emit triangles")
	}
}

func TestEdgeCornersCoverCube(t *testing.T) {
	// Unit cube corner offsets in Grid.Cube order.
	g, err := NewGrid(unitBox(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	corners := g.Cube(0, 0, 0)
	seen := map[[2]int]bool{}
	for e := 0; e < 12; e++ {
		a, b := EdgeCorners(e)
		if a == b || a < 0 || a > 7 || b < 0 || b > 7 {
			t.Fatalf("edge %d has bad corners %d,%d", e, a, b)
		}
		d := r3.Sub(corners[a], corners[b])
		manhattan := abs(d.X) + abs(d.Y) + abs(d.Z)
		if manhattan != 1 {
			t.Errorf("edge %d (%d,%d) is not a cube edge", e, a, b)
		}
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		if seen[key] {
			t.Errorf("edge %d duplicates corner pair %v", e, key)
		}
		seen[key] = true
	}
	if len(seen) != 12 {
		t.Errorf("got %d distinct edges, want 12", len(seen))
	}
}

func TestKernelTriangleTable(t *testing.T) {
	flat := KernelTriangleTable()
	if len(flat) != 256*marchingCubesMaxTriangles {
		t.Fatalf("bad kernel table length %d", len(flat))
	}
	for config := 0; config < 256; config++ {
		n := TriangleCount(config)
		for tri := 0; tri < marchingCubesMaxTriangles; tri++ {
			got := flat[config*marchingCubesMaxTriangles+tri]
			if tri >= n {
				if got != [3]int32{-1, -1, -1} {
					t.Errorf("configuration %d slot %d not padded: %v", config, tri, got)
				}
				continue
			}
			want := TriangleEdges(config, tri)
			if got != [3]int32{int32(want[0]), int32(want[1]), int32(want[2])} {
				t.Errorf("configuration %d triangle %d: got %v want %v", config, tri, got, want)
			}
		}
	}
}

func TestLookupPanics(t *testing.T) {
	for _, fn := range []func(){
		func() { TriangleCount(256) },
		func() { TriangleCount(-1) },
		func() { TriangleEdges(1, 1) },
		func() { EdgeCorners(12) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		}()
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
