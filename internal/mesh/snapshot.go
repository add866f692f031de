package mesh

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrInvalidMesh is returned when triangle indices or attribute arrays are malformed.
var ErrInvalidMesh = errors.New("invalid mesh")

// Snapshot is an immutable view of a triangle mesh.
// UVs, Normals and Colors are indexed like Positions. A UV seam is expressed
// as two vertices with the same position and different UVs.
type Snapshot struct {
	Positions [][3]float32
	Normals   [][3]float32 // optional
	UVs       [][2]float32
	Colors    []color.NRGBA // optional
	Triangles [][3]int
}

// VertexCount returns the number of vertices.
func (s *Snapshot) VertexCount() int {
	return len(s.Positions)
}

// TriangleCount returns the number of triangles.
func (s *Snapshot) TriangleCount() int {
	return len(s.Triangles)
}

// HasColors reports whether the snapshot carries per-vertex colors.
func (s *Snapshot) HasColors() bool {
	return len(s.Colors) > 0 && len(s.Colors) == len(s.Positions)
}

// Validate checks index ranges and attribute array lengths.
func (s *Snapshot) Validate() error {
	nv := len(s.Positions)
	if len(s.UVs) != nv {
		return fmt.Errorf("mesh: %d uvs for %d vertices: %w", len(s.UVs), nv, ErrInvalidMesh)
	}
	if len(s.Normals) != 0 && len(s.Normals) != nv {
		return fmt.Errorf("mesh: %d normals for %d vertices: %w", len(s.Normals), nv, ErrInvalidMesh)
	}
	if len(s.Colors) != 0 && len(s.Colors) != nv {
		return fmt.Errorf("mesh: %d colors for %d vertices: %w", len(s.Colors), nv, ErrInvalidMesh)
	}
	for t, tri := range s.Triangles {
		for _, vi := range tri {
			if vi < 0 || vi >= nv {
				return fmt.Errorf("mesh: triangle %d references vertex %d (have %d): %w", t, vi, nv, ErrInvalidMesh)
			}
		}
	}
	return nil
}

// WithColors returns a shallow copy of s whose vertex colors are replaced.
// Geometry slices are shared with s.
func (s *Snapshot) WithColors(colors []color.NRGBA) *Snapshot {
	out := *s
	out.Colors = colors
	return &out
}

// Merge concatenates snapshots into one, offsetting triangle indices.
// Attributes missing in some inputs are dropped from the result.
func Merge(parts ...*Snapshot) *Snapshot {
	out := &Snapshot{}
	normals, colors := true, true
	for _, p := range parts {
		if len(p.Normals) != len(p.Positions) {
			normals = false
		}
		if !p.HasColors() {
			colors = false
		}
	}
	for _, p := range parts {
		base := len(out.Positions)
		out.Positions = append(out.Positions, p.Positions...)
		out.UVs = append(out.UVs, p.UVs...)
		if normals {
			out.Normals = append(out.Normals, p.Normals...)
		}
		if colors {
			out.Colors = append(out.Colors, p.Colors...)
		}
		for _, t := range p.Triangles {
			out.Triangles = append(out.Triangles, [3]int{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}
