package demosaic

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// greenEqualize corrects systematic brightness differences between the
// two green sub-populations of a Bayer sensor (spec §4.4 "green
// equilibration: full-average, local-average, or both"). It mutates src
// in place before the interpolation passes run.
func greenEqualize(src *buffer.Buf, global, local bool, pool *parallel.Pool) {
	mask := src.Desc.FilterMask
	if global {
		greenEqGlobal(src, mask)
	}
	if local {
		greenEqLocal(src, mask, pool)
	}
}

// greenEqGlobal scales every green sample belonging to the minority-mean
// sub-population up (or the majority down) so both green phases share
// the same average, correcting a constant per-phase offset.
func greenEqGlobal(src *buffer.Buf, mask uint32) {
	var sum [2]float64
	var n [2]int64
	for y := 0; y < src.Height; y++ {
		row := src.Row(y)
		for x := 0; x < src.Width; x++ {
			if fcol(x, y, mask) != 1 {
				continue
			}
			phase := greenPhase(x, y)
			sum[phase] += float64(row[x])
			n[phase]++
		}
	}
	if n[0] == 0 || n[1] == 0 {
		return
	}
	mean0 := sum[0] / float64(n[0])
	mean1 := sum[1] / float64(n[1])
	if mean0 == 0 || mean1 == 0 {
		return
	}
	ratio := [2]float64{1, mean0 / mean1}
	if mean0 > mean1 {
		ratio = [2]float64{mean1 / mean0, 1}
	}
	for y := 0; y < src.Height; y++ {
		row := src.Row(y)
		for x := 0; x < src.Width; x++ {
			if fcol(x, y, mask) != 1 {
				continue
			}
			phase := greenPhase(x, y)
			row[x] = float32(float64(row[x]) * ratio[phase])
		}
	}
}

// greenEqLocal corrects each green sample against the local average of
// its 3x3 same-phase neighborhood, smoothing out per-pixel green
// mismatch that a global scale factor cannot remove.
func greenEqLocal(src *buffer.Buf, mask uint32, pool *parallel.Pool) {
	clone := src.Clone()
	body := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := src.Row(y)
			for x := 0; x < src.Width; x++ {
				if fcol(x, y, mask) != 1 {
					continue
				}
				phase := greenPhase(x, y)
				var sum float32
				var n int
				for dy := -2; dy <= 2; dy += 2 {
					ny := y + dy
					if ny < 0 || ny >= src.Height {
						continue
					}
					crow := clone.Row(ny)
					for dx := -2; dx <= 2; dx += 2 {
						nx := x + dx
						if nx < 0 || nx >= src.Width || fcol(nx, ny, mask) != 1 || greenPhase(nx, ny) != phase {
							continue
						}
						sum += crow[nx]
						n++
					}
				}
				if n == 0 {
					continue
				}
				localMean := sum / float32(n)
				if localMean <= 0 {
					continue
				}
				// Pull the sample halfway toward its local same-phase
				// mean rather than replacing it outright, so a single
				// noisy sample cannot flatten the detail around it.
				row[x] = (clone.Row(y)[x] + localMean) / 2
			}
		}
	}
	if pool == nil {
		body(0, src.Height)
	} else {
		pool.ParallelRows(src.Height, body)
	}
}

// greenPhase returns which of the two green sub-populations (0 or 1) the
// green pixel at (x, y) belongs to. In a standard Bayer CFA every green
// pixel in a given row belongs to the same sub-population (the row
// alternates between red/green and green/blue pairs), so row parity
// alone identifies the phase.
func greenPhase(x, y int) int {
	_ = x
	return y % 2
}
