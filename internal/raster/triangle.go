package raster

import "math"

// minArea is the doubled-area threshold below which a UV triangle is skipped.
const minArea = 1e-12

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// rasterizeLabel writes label into every pixel whose integer coordinate lies
// inside (or on an edge of) the triangle. Coordinates are already scaled to
// pixel space. Later calls overwrite earlier ones.
//
// This is the hot path: no allocation in the pixel loop.
func rasterizeLabel(lm *LabelMap, x0, y0, x1, y1, x2, y2 float64, label int32) {
	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if area > -minArea && area < minArea {
		return
	}

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= lm.Width {
		maxX = lm.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= lm.Height {
		maxY = lm.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Precompute edge deltas
	dx01, dy01 := x1-x0, y1-y0
	dx12, dy12 := x2-x1, y2-y1
	dx20, dy20 := x0-x2, y0-y2

	for sy := minY; sy <= maxY; sy++ {
		py := float64(sy)
		rowOff := sy * lm.Width
		for sx := minX; sx <= maxX; sx++ {
			px := float64(sx)
			e0 := dx01*(py-y0) - dy01*(px-x0)
			e1 := dx12*(py-y1) - dy12*(px-x1)
			e2 := dx20*(py-y2) - dy20*(px-x2)

			if (e0 >= 0 && e1 >= 0 && e2 >= 0) || (e0 <= 0 && e1 <= 0 && e2 <= 0) {
				lm.Labels[rowOff+sx] = label
			}
		}
	}
}
