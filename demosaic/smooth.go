package demosaic

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// colorSmooth applies one pass of 3x3 median-of-color-difference
// smoothing (spec §4.4 "color smoothing: iterative 3x3 median of
// R-G/B-G"): for each pixel, red and blue are replaced by the median of
// their own 3x3 neighborhood's (R-G) or (B-G) difference, added back to
// that pixel's green value. This removes the maze artifacts PPG leaves
// in busy detail without blurring luminance.
func colorSmooth(dst *buffer.Buf, pool *parallel.Pool) {
	clone := dst.Clone()
	for _, c := range [2]int{0, 2} {
		body := func(y0, y1 int) {
			var window [9]float32
			for y := y0; y < y1; y++ {
				row := dst.Row(y)
				for x := 0; x < dst.Width; x++ {
					n := 0
					for dy := -1; dy <= 1; dy++ {
						ny := y + dy
						if ny < 0 || ny >= dst.Height {
							continue
						}
						crow := clone.Row(ny)
						for dx := -1; dx <= 1; dx++ {
							nx := x + dx
							if nx < 0 || nx >= dst.Width {
								continue
							}
							window[n] = crow[nx*4+c] - crow[nx*4+1]
							n++
						}
					}
					diff := medianOf(window[:n])
					row[x*4+c] = clone.Row(y)[x*4+1] + diff
				}
			}
		}
		if pool == nil {
			body(0, dst.Height)
		} else {
			pool.ParallelRows(dst.Height, body)
		}
		clone = dst.Clone()
	}
}

// medianOf returns the median of a small slice via a selection sort of
// a copy; window sizes here are at most 9 so an O(n^2) selection is
// simpler and fast enough.
func medianOf(v []float32) float32 {
	buf := make([]float32, len(v))
	copy(buf, v)
	for i := 0; i < len(buf); i++ {
		minIdx := i
		for j := i + 1; j < len(buf); j++ {
			if buf[j] < buf[minIdx] {
				minIdx = j
			}
		}
		buf[i], buf[minIdx] = buf[minIdx], buf[i]
	}
	return buf[len(buf)/2]
}
