// Package composite turns a label map and an island selection into mask
// images, channel-packed textures and per-vertex colors.
package composite

import (
	"errors"

	"uv-mask-maker/internal/postprocess"
	"uv-mask-maker/internal/raster"
	"uv-mask-maker/internal/uv"
)

var (
	// ErrStaleSelection is returned when a selection belongs to a different
	// analysis than the label map or mesh it is applied to.
	ErrStaleSelection = errors.New("selection does not belong to this analysis")

	// ErrBaseSizeMismatch is returned when a base image differs in size
	// from the mask.
	ErrBaseSizeMismatch = errors.New("base image size does not match mask")

	// ErrVertexCountMismatch is returned when a base vertex-color buffer
	// does not have one entry per mesh vertex.
	ErrVertexCountMismatch = errors.New("vertex count mismatch")
)

// Mask is a boolean raster in label-map layout: row 0 is UV v=0.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// Count returns the number of on pixels.
func (m *Mask) Count() int {
	n := 0
	for _, on := range m.Pix {
		if on {
			n++
		}
	}
	return n
}

// At reports whether pixel (x, y) is on. Out-of-range pixels are off.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// BuildMask marks every pixel whose label is a selected island, then grows
// the result by margin pixels.
func BuildMask(lm *raster.LabelMap, sel *uv.Selection, margin int) (*Mask, error) {
	if sel.Source() != lm.Source {
		return nil, ErrStaleSelection
	}
	selected := sel.Lookup()
	pix := make([]bool, len(lm.Labels))
	for i, l := range lm.Labels {
		pix[i] = l != raster.NoIsland && int(l) < len(selected) && selected[l]
	}
	if margin > 0 {
		pix = postprocess.Dilate(pix, lm.Width, lm.Height, margin)
	}
	return &Mask{Width: lm.Width, Height: lm.Height, Pix: pix}, nil
}
