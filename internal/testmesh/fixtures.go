// Package testmesh builds small synthetic meshes shared by package tests.
package testmesh

import "uv-mask-maker/internal/mesh"

// Quad appends a quad (two triangles 0-1-2, 0-2-3) to s with the given
// corner positions and UVs, returning the first new triangle index.
func Quad(s *mesh.Snapshot, pos [4][3]float32, uvs [4][2]float32) int {
	base := len(s.Positions)
	first := len(s.Triangles)
	for k := 0; k < 4; k++ {
		s.Positions = append(s.Positions, pos[k])
		s.UVs = append(s.UVs, uvs[k])
		s.Normals = append(s.Normals, [3]float32{0, 0, 1})
	}
	s.Triangles = append(s.Triangles,
		[3]int{base, base + 1, base + 2},
		[3]int{base, base + 2, base + 3},
	)
	return first
}

// UnitQuad returns positions of an axis-aligned unit quad offset along x.
func UnitQuad(x float32) [4][3]float32 {
	return [4][3]float32{{x, 0, 0}, {x + 1, 0, 0}, {x + 1, 1, 0}, {x, 1, 0}}
}

// UVRect returns quad UVs covering [u0,u1]x[v0,v1].
func UVRect(u0, v0, u1, v1 float32) [4][2]float32 {
	return [4][2]float32{{u0, v0}, {u1, v0}, {u1, v1}, {u0, v1}}
}

// TwoIslands returns two disconnected quads: island 0 covers UV
// [0,0.5]x[0,1] (triangles 0,1) and island 1 covers [0.5,1]x[0,1]
// (triangles 2,3).
func TwoIslands() *mesh.Snapshot {
	s := &mesh.Snapshot{}
	Quad(s, UnitQuad(0), UVRect(0, 0, 0.5, 1))
	Quad(s, UnitQuad(2), UVRect(0.5, 0, 1, 1))
	return s
}

// SeamedStrip returns two quads that share a position-space edge (x=1)
// but are cut apart in UV space, so they form two islands.
func SeamedStrip() *mesh.Snapshot {
	s := &mesh.Snapshot{}
	Quad(s, UnitQuad(0), UVRect(0, 0, 0.4, 1))
	Quad(s, UnitQuad(1), UVRect(0.6, 0, 1, 1))
	return s
}

// ContinuousStrip returns two quads sharing the x=1 edge through split
// vertices whose UVs agree, so they form one island.
func ContinuousStrip() *mesh.Snapshot {
	s := &mesh.Snapshot{}
	Quad(s, UnitQuad(0), UVRect(0, 0, 0.5, 1))
	Quad(s, UnitQuad(1), UVRect(0.5, 0, 1, 1))
	return s
}

// SharedVertexIslands returns two islands that share vertex 0 (same index)
// but meet only at that corner in UV space.
func SharedVertexIslands() *mesh.Snapshot {
	return &mesh.Snapshot{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {-1, 0, 0}, {0, -1, 0}},
		UVs:       [][2]float32{{0.5, 0.5}, {1, 0.5}, {0.5, 1}, {0, 0.5}, {0.5, 0}},
		Triangles: [][3]int{{0, 1, 2}, {0, 3, 4}},
	}
}
