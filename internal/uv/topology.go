package uv

import (
	"sort"

	"uv-mask-maker/internal/mesh"
)

// UVEpsilon is the per-component tolerance for two UVs to count as equal.
const UVEpsilon = 1e-5

// Edge is an undirected vertex-index pair with V0 < V1.
type Edge struct {
	V0, V1 int
}

func makeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// edgeUse is one triangle's side of a position-space edge.
// a and b are the triangle's own vertex indices, ordered so that
// weld[a] < weld[b] (or a <= b when both weld to the same position).
type edgeUse struct {
	tri  int
	a, b int
}

// topology is the UV adjacency graph over triangles.
type topology struct {
	adj     [][]int // triangle -> UV-continuous neighbor triangles
	borders []Edge
}

// weldPositions maps every vertex to a dense position id. Vertices with
// bit-identical positions share an id.
func weldPositions(positions [][3]float32) []int {
	ids := make(map[[3]float32]int, len(positions))
	weld := make([]int, len(positions))
	for i, p := range positions {
		id, ok := ids[p]
		if !ok {
			id = len(ids)
			ids[p] = id
		}
		weld[i] = id
	}
	return weld
}

func uvEqual(a, b [2]float32) bool {
	du := float64(a[0]) - float64(b[0])
	dv := float64(a[1]) - float64(b[1])
	return du <= UVEpsilon && du >= -UVEpsilon && dv <= UVEpsilon && dv >= -UVEpsilon
}

// buildTopology links triangles that share a position-space edge with
// matching UVs at both endpoints. Edges shared by more than two triangles
// are tested pairwise.
func buildTopology(m *mesh.Snapshot) *topology {
	weld := weldPositions(m.Positions)

	edges := make(map[Edge][]edgeUse)
	order := make([]Edge, 0, len(m.Triangles)*3)
	for t, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if weld[a] > weld[b] || (weld[a] == weld[b] && a > b) {
				a, b = b, a
			}
			key := makeEdge(weld[a], weld[b])
			if _, ok := edges[key]; !ok {
				order = append(order, key)
			}
			edges[key] = append(edges[key], edgeUse{tri: t, a: a, b: b})
		}
	}

	topo := &topology{adj: make([][]int, len(m.Triangles))}
	borderSet := make(map[Edge]struct{})

	for _, key := range order {
		uses := edges[key]
		matched := make([]bool, len(uses))
		for i := 0; i < len(uses); i++ {
			for j := i + 1; j < len(uses); j++ {
				ui, uj := uses[i], uses[j]
				if ui.tri == uj.tri {
					continue
				}
				if uvEqual(m.UVs[ui.a], m.UVs[uj.a]) && uvEqual(m.UVs[ui.b], m.UVs[uj.b]) {
					topo.adj[ui.tri] = append(topo.adj[ui.tri], uj.tri)
					topo.adj[uj.tri] = append(topo.adj[uj.tri], ui.tri)
					matched[i] = true
					matched[j] = true
				}
			}
		}
		for i, u := range uses {
			if !matched[i] {
				borderSet[makeEdge(u.a, u.b)] = struct{}{}
			}
		}
	}

	topo.borders = make([]Edge, 0, len(borderSet))
	for e := range borderSet {
		topo.borders = append(topo.borders, e)
	}
	sort.Slice(topo.borders, func(i, j int) bool {
		if topo.borders[i].V0 != topo.borders[j].V0 {
			return topo.borders[i].V0 < topo.borders[j].V0
		}
		return topo.borders[i].V1 < topo.borders[j].V1
	})
	return topo
}
