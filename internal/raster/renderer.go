// Package raster draws UV islands into a per-pixel island-id map.
package raster

import (
	"fmt"

	"uv-mask-maker/internal/uv"
)

// BuildLabelMap rasterizes every island of a into a w x h label map.
// UVs are clamped to [0,1] and scaled by (w-1, h-1), so u=0 and u=1 land on
// the first and last pixel columns. Islands are drawn in id order; where
// distinct islands overlap in UV space the higher id wins.
func BuildLabelMap(a *uv.Analysis, w, h int) (*LabelMap, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("raster: %dx%d: %w", w, h, ErrInvalidResolution)
	}
	lm := newLabelMap(w, h, a)
	if a == nil {
		return lm, nil
	}

	sx := float64(w - 1)
	sy := float64(h - 1)
	var px, py [3]float64
	for _, isl := range a.Islands {
		label := int32(isl.ID)
		for _, t := range isl.Triangles {
			tri := a.Triangles[t]
			for k := 0; k < 3; k++ {
				uvk := a.UVs[tri[k]]
				px[k] = clamp01(float64(uvk[0])) * sx
				py[k] = clamp01(float64(uvk[1])) * sy
			}
			rasterizeLabel(lm, px[0], py[0], px[1], py[1], px[2], py[2], label)
		}
	}
	return lm, nil
}
