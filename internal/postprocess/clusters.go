package postprocess

// Regions returns the sizes of the 8-connected true regions of a w x h mask,
// in the scan order of each region's first pixel.
func Regions(mask []bool, w, h int) []int {
	if w <= 0 || h <= 0 || len(mask) < w*h {
		return nil
	}

	labels := make([]int, w*h)
	for i := range labels {
		labels[i] = -1
	}
	var sizes []int
	compID := 0

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

	queue := make([]int, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !mask[idx] || labels[idx] >= 0 {
				continue
			}

			// BFS from this pixel
			queue = queue[:0]
			queue = append(queue, idx)
			labels[idx] = compID
			size := 0

			for len(queue) > 0 {
				curr := queue[0]
				queue = queue[1:]
				size++

				cy := curr / w
				cx := curr % w
				for d := 0; d < 8; d++ {
					nx := cx + dx[d]
					ny := cy + dy[d]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] && labels[ni] < 0 {
						labels[ni] = compID
						queue = append(queue, ni)
					}
				}
			}

			sizes = append(sizes, size)
			compID++
		}
	}
	return sizes
}
