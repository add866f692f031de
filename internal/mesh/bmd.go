package mesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"uv-mask-maker/internal/bmd"
)

// FromBMD converts one BMD sub-mesh. Each distinct (position, texcoord)
// corner pair becomes a snapshot vertex. Corners with out-of-range indices
// are reported as ErrInvalidMesh rather than dropped.
func FromBMD(m bmd.Mesh) (*Snapshot, error) {
	type corner struct{ vi, ti int }

	s := &Snapshot{}
	seen := make(map[corner]int)
	for ti, tri := range m.Tris {
		for _, c := range tri.Corners() {
			var out [3]int
			for k, ci := range c {
				key := corner{int(tri.VI[ci]), int(tri.TI[ci])}
				if key.vi < 0 || key.vi >= len(m.Verts) || key.ti < 0 || key.ti >= len(m.UVs) {
					return nil, fmt.Errorf("mesh: bmd triangle %d corner %d (v=%d t=%d): %w",
						ti, ci, key.vi, key.ti, ErrInvalidMesh)
				}
				idx, ok := seen[key]
				if !ok {
					idx = len(s.Positions)
					seen[key] = idx
					s.Positions = append(s.Positions, m.Verts[key.vi])
					s.UVs = append(s.UVs, m.UVs[key.ti])
					if ni := int(tri.NI[ci]); ni >= 0 && ni < len(m.Normals) {
						s.Normals = append(s.Normals, m.Normals[ni])
					} else {
						s.Normals = append(s.Normals, [3]float32{})
					}
				}
				out[k] = idx
			}
			s.Triangles = append(s.Triangles, out)
		}
	}
	return s, nil
}

// SubMeshFilter reports whether a BMD sub-mesh takes part in the merged
// snapshot. A nil filter keeps every sub-mesh.
type SubMeshFilter func(*bmd.Mesh) bool

// LoadBMDWith parses a BMD file and merges the sub-meshes keep accepts.
func LoadBMDWith(path string, keep SubMeshFilter) (*Snapshot, error) {
	meshes, err := bmd.Parse(path)
	if err != nil {
		return nil, err
	}
	s, err := fromBMDMeshes(meshes, keep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseBMDWith decodes an in-memory BMD file and merges the sub-meshes
// keep accepts.
func ParseBMDWith(raw []byte, keep SubMeshFilter) (*Snapshot, error) {
	meshes, err := bmd.ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	return fromBMDMeshes(meshes, keep)
}

func fromBMDMeshes(meshes []bmd.Mesh, keep SubMeshFilter) (*Snapshot, error) {
	parts := make([]*Snapshot, 0, len(meshes))
	for i := range meshes {
		if keep != nil && !keep(&meshes[i]) {
			continue
		}
		s, err := FromBMD(meshes[i])
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		parts = append(parts, s)
	}
	return Merge(parts...), nil
}

// Load reads a mesh file, choosing the decoder by extension.
func Load(path string) (*Snapshot, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with a sub-mesh filter, applied to BMD files only.
func LoadWith(path string, keep SubMeshFilter) (*Snapshot, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path)
	case ".bmd":
		return LoadBMDWith(path, keep)
	default:
		return nil, fmt.Errorf("mesh: unsupported file type %q", filepath.Ext(path))
	}
}
