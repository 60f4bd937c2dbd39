package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is the static overlay geometry. The quad spans -1..1 in X and Y at
// z = 0; texcoords run 0..1 with v pointing down.
type Mesh struct {
	SegmentsX int
	SegmentsY int
	Vertices  []WallBlendVertex
	Indices   []uint16
}

// QuadMesh builds a grid of segX x segY quads. A 1x1 mesh is the four-vertex,
// two-triangle overlay quad.
func QuadMesh(segX, segY int) Mesh {
	segX, segY = max(segX, 1), max(segY, 1)
	// Indices are uint16.
	for (segX+1)*(segY+1) > 1<<16 {
		segX, segY = max(segX/2, 1), max(segY/2, 1)
	}

	m := Mesh{
		SegmentsX: segX,
		SegmentsY: segY,
		Vertices:  make([]WallBlendVertex, 0, (segX+1)*(segY+1)),
		Indices:   make([]uint16, 0, segX*segY*6),
	}

	// Column-major: bottom-left, top-left, bottom-right, top-right for 1x1.
	for i := 0; i <= segX; i++ {
		u := float32(i) / float32(segX)
		for j := 0; j <= segY; j++ {
			v := float32(j) / float32(segY)
			m.Vertices = append(m.Vertices, WallBlendVertex{
				Position:  mgl32.Vec3{u*2 - 1, v*2 - 1, 0},
				Texcoord0: mgl32.Vec2{u, 1 - v},
			})
		}
	}

	stride := segY + 1
	for i := 0; i < segX; i++ {
		for j := 0; j < segY; j++ {
			a := uint16(i*stride + j)
			b := a + 1
			c := uint16((i+1)*stride + j)
			d := c + 1
			m.Indices = append(m.Indices, a, b, c, b, c, d)
		}
	}
	return m
}

// TriangleCount returns the number of triangles in the index buffer.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}
