package raster

import (
	"errors"

	"uv-mask-maker/internal/uv"
)

// NoIsland marks a label-map pixel that no island covers.
const NoIsland int32 = -1

// ErrInvalidResolution is returned for a label map smaller than 1x1.
var ErrInvalidResolution = errors.New("invalid resolution")

// LabelMap holds, per pixel, the island id covering it. Rows are stored top
// to bottom with row 0 at UV v=0, as flat slices for cache locality.
type LabelMap struct {
	Width  int
	Height int
	Labels []int32 // len = W*H, NoIsland where uncovered

	// Source is the analysis the map was built from.
	Source *uv.Analysis
}

// newLabelMap allocates a map with every pixel set to NoIsland.
func newLabelMap(w, h int, src *uv.Analysis) *LabelMap {
	labels := make([]int32, w*h)
	for i := range labels {
		labels[i] = NoIsland
	}
	return &LabelMap{Width: w, Height: h, Labels: labels, Source: src}
}

// At returns the label at pixel (x, y), or NoIsland outside the map.
func (lm *LabelMap) At(x, y int) int32 {
	if x < 0 || y < 0 || x >= lm.Width || y >= lm.Height {
		return NoIsland
	}
	return lm.Labels[y*lm.Width+x]
}

// Coverage counts the pixels labelled with island id.
func (lm *LabelMap) Coverage(id int) int {
	n := 0
	want := int32(id)
	for _, l := range lm.Labels {
		if l == want {
			n++
		}
	}
	return n
}

// Covered counts pixels covered by any island.
func (lm *LabelMap) Covered() int {
	n := 0
	for _, l := range lm.Labels {
		if l != NoIsland {
			n++
		}
	}
	return n
}
