package uv

// Island is one UV-connected group of triangles.
type Island struct {
	ID        int
	Triangles []int // ascending triangle indices
}

// disjointSet is a union-find over triangle indices.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(x int) int {
	root := x
	for ds.parent[root] != root {
		root = ds.parent[root]
	}
	for ds.parent[x] != root {
		next := ds.parent[x]
		ds.parent[x] = root
		x = next
	}
	return root
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}

// segment partitions triangles into islands. Ids are assigned in order of
// each component's lowest triangle index, so equal input gives equal ids.
func segment(topo *topology) ([]Island, []int) {
	n := len(topo.adj)
	ds := newDisjointSet(n)
	for t, nbrs := range topo.adj {
		for _, o := range nbrs {
			ds.union(t, o)
		}
	}

	triToIsland := make([]int, n)
	rootToID := make(map[int]int)
	var islands []Island
	for t := 0; t < n; t++ {
		root := ds.find(t)
		id, ok := rootToID[root]
		if !ok {
			id = len(islands)
			rootToID[root] = id
			islands = append(islands, Island{ID: id})
		}
		islands[id].Triangles = append(islands[id].Triangles, t)
		triToIsland[t] = id
	}
	return islands, triToIsland
}
