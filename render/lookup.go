package render

import "fmt"

// TriangleCount returns the amount of triangles emitted for a cube in the
// given configuration. It panics if config is not in [0,255].
func TriangleCount(config int) int {
	checkConfig(config)
	return int(mcTriangleCount[config])
}

// TriangleEdges returns the three edge ids bounding the t'th triangle of a
// cube configuration. It panics if config is not in [0,255] or the
// configuration has no t'th triangle.
func TriangleEdges(config, t int) [3]int {
	checkConfig(config)
	edges := mcTriangleTable[config]
	if t < 0 || 3*t+2 >= len(edges) {
		panic(fmt.Sprintf("configuration %d has no triangle %d", config, t))
	}
	return [3]int{int(edges[3*t]), int(edges[3*t+1]), int(edges[3*t+2])}
}

// EdgeCorners returns the two corner indices connected by an edge id.
// It panics if edge is not in [0,11].
func EdgeCorners(edge int) (a, b int) {
	if edge < 0 || edge >= len(mcEdgeCorners) {
		panic(fmt.Sprintf("edge id %d out of range [0,11]", edge))
	}
	pair := mcEdgeCorners[edge]
	return pair[0], pair[1]
}

// KernelTriangleTable returns the triangle table laid out for upload to a
// compute kernel: marchingCubesMaxTriangles edge triples per configuration,
// unused triples padded with -1. Index configuration c triangle t at c*5+t.
func KernelTriangleTable() [][3]int32 {
	flat := make([][3]int32, 256*marchingCubesMaxTriangles)
	for c, edges := range mcTriangleTable {
		for t := 0; t < marchingCubesMaxTriangles; t++ {
			dst := &flat[c*marchingCubesMaxTriangles+t]
			if 3*t < len(edges) {
				*dst = [3]int32{int32(edges[3*t]), int32(edges[3*t+1]), int32(edges[3*t+2])}
			} else {
				*dst = [3]int32{-1, -1, -1}
			}
		}
	}
	return flat
}

func checkConfig(config int) {
	if config < 0 || config > 255 {
		panic(fmt.Sprintf("marching cubes configuration %d out of range [0,255]", config))
	}
}
