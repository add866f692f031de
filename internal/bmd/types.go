package bmd

// Triangle holds polygon type and index tuples into vertex/normal/texcoord arrays.
// Polygon == 4 means quad (two triangles: 0-1-2 and 0-2-3).
type Triangle struct {
	Polygon int
	VI      [4]int16
	NI      [4]int16
	TI      [4]int16
}

// Corners returns the corner index lists of the triangles this polygon
// expands to. Quads yield two.
func (t Triangle) Corners() [][3]int {
	out := [][3]int{{0, 1, 2}}
	if t.Polygon == 4 {
		out = append(out, [3]int{0, 2, 3})
	}
	return out
}

// Mesh holds parsed geometry for one sub-mesh within a BMD file.
// Positions and texcoords are indexed separately, so one position can carry
// several UVs (texture seams).
type Mesh struct {
	Verts   [][3]float32
	Normals [][3]float32
	UVs     [][2]float32
	Tris    []Triangle
	TexPath string // texture reference from BMD (e.g. "sword04.jpg")
}
