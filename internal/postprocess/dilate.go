package postprocess

// Dilate grows the true region of a w x h mask by one pixel per iteration
// using the 4-neighborhood. Pixels outside the grid are ignored. The input
// is never modified. Zero or negative iterations, or a mask whose length
// is not w*h, return a copy.
func Dilate(mask []bool, w, h, iterations int) []bool {
	cur := make([]bool, len(mask))
	copy(cur, mask)
	if iterations <= 0 || w <= 0 || h <= 0 || len(mask) != w*h {
		return cur
	}

	next := make([]bool, len(cur))
	for it := 0; it < iterations; it++ {
		changed := false
		for y := 0; y < h; y++ {
			row := y * w
			for x := 0; x < w; x++ {
				i := row + x
				if cur[i] {
					next[i] = true
					continue
				}
				on := (x > 0 && cur[i-1]) ||
					(x < w-1 && cur[i+1]) ||
					(y > 0 && cur[i-w]) ||
					(y < h-1 && cur[i+w])
				next[i] = on
				if on {
					changed = true
				}
			}
		}
		cur, next = next, cur
		if !changed {
			break
		}
	}
	return cur
}
