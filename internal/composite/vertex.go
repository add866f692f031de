package composite

import (
	"fmt"
	"image/color"

	"uv-mask-maker/internal/uv"
)

// SelectedVertices marks every vertex used by at least one triangle of a
// selected island. sel must belong to a.
func SelectedVertices(a *uv.Analysis, sel *uv.Selection) ([]bool, error) {
	if sel.Source() != a {
		return nil, ErrStaleSelection
	}
	out := make([]bool, a.VertexCount())
	for _, id := range sel.IDs() {
		for _, t := range a.Islands[id].Triangles {
			for _, v := range a.Triangles[t] {
				out[v] = true
			}
		}
	}
	return out, nil
}

// VertexColors applies the channel rule to per-vertex colors. Unselected
// vertices and unflagged channels keep their base value.
//
// base must hold one color per vertex. If it does not, fallback is used
// when it does; otherwise ErrVertexCountMismatch is returned. A nil base
// and nil fallback start from opaque white.
func VertexColors(a *uv.Analysis, sel *uv.Selection, ch ChannelSet, base, fallback []color.NRGBA) ([]color.NRGBA, error) {
	if sel.Source() != a {
		return nil, ErrStaleSelection
	}
	n := a.VertexCount()

	src := base
	switch {
	case base == nil && fallback == nil:
		src = make([]color.NRGBA, n)
		for i := range src {
			src[i] = white
		}
	case len(base) == n && base != nil:
	case fallback != nil && len(fallback) == n:
		src = fallback
	case base == nil:
		return nil, fmt.Errorf("composite: fallback has %d colors, mesh has %d vertices: %w",
			len(fallback), n, ErrVertexCountMismatch)
	default:
		return nil, fmt.Errorf("composite: base has %d colors, mesh has %d vertices: %w",
			len(base), n, ErrVertexCountMismatch)
	}

	selected, err := SelectedVertices(a, sel)
	if err != nil {
		return nil, err
	}
	out := make([]color.NRGBA, n)
	for i, c := range src {
		out[i] = applyChannels(c, selected[i], ch, true)
	}
	return out, nil
}
