// Package uv finds UV islands and UV border edges on a triangle mesh and
// tracks which islands are selected.
package uv

import (
	"fmt"
	"math"

	"uv-mask-maker/internal/mesh"
)

// ErrInvalidMesh is returned by Analyze for malformed triangle indices.
var ErrInvalidMesh = mesh.ErrInvalidMesh

// Analysis is the result of one Analyze call. It is immutable once built:
// callers replace it on re-analysis rather than mutating it.
type Analysis struct {
	Islands          []Island
	BorderEdges      []Edge
	TriangleToIsland []int

	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Triangles [][3]int
}

// Analyze partitions the mesh triangles into UV islands and collects the
// UV border edges. The snapshot is only read.
func Analyze(m *mesh.Snapshot) (*Analysis, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("uv: analyze: %w", err)
	}

	topo := buildTopology(m)
	islands, triToIsland := segment(topo)

	a := &Analysis{
		Islands:          islands,
		BorderEdges:      topo.borders,
		TriangleToIsland: triToIsland,
		Positions:        append([][3]float32(nil), m.Positions...),
		Normals:          append([][3]float32(nil), m.Normals...),
		UVs:              append([][2]float32(nil), m.UVs...),
		Triangles:        append([][3]int(nil), m.Triangles...),
	}
	return a, nil
}

// IslandCount returns the number of islands.
func (a *Analysis) IslandCount() int {
	return len(a.Islands)
}

// VertexCount returns the number of vertices of the analyzed mesh.
func (a *Analysis) VertexCount() int {
	return len(a.Positions)
}

// PickIsland maps a triangle index, as produced by host-side hit testing,
// to its island.
func (a *Analysis) PickIsland(tri int) (int, bool) {
	if tri < 0 || tri >= len(a.TriangleToIsland) {
		return 0, false
	}
	return a.TriangleToIsland[tri], true
}

// IslandsOfVertex returns, for every vertex, the sorted distinct islands
// of the triangles that use it.
func (a *Analysis) IslandsOfVertex() [][]int {
	out := make([][]int, len(a.Positions))
	for t, tri := range a.Triangles {
		id := a.TriangleToIsland[t]
		for _, v := range tri {
			out[v] = insertSorted(out[v], id)
		}
	}
	return out
}

func insertSorted(s []int, v int) []int {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Bounds is an axis-aligned box in UV space.
type Bounds struct {
	Min, Max [2]float32
}

// IslandUVBounds returns the UV bounding box of an island.
func (a *Analysis) IslandUVBounds(id int) (Bounds, bool) {
	if id < 0 || id >= len(a.Islands) {
		return Bounds{}, false
	}
	b := Bounds{
		Min: [2]float32{math.MaxFloat32, math.MaxFloat32},
		Max: [2]float32{-math.MaxFloat32, -math.MaxFloat32},
	}
	for _, t := range a.Islands[id].Triangles {
		for _, v := range a.Triangles[t] {
			uv := a.UVs[v]
			for k := 0; k < 2; k++ {
				if uv[k] < b.Min[k] {
					b.Min[k] = uv[k]
				}
				if uv[k] > b.Max[k] {
					b.Max[k] = uv[k]
				}
			}
		}
	}
	return b, true
}
