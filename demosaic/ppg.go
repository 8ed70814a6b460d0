package demosaic

import (
	"fmt"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// runPPG reconstructs full RGB from a Bayer mosaic in three phases (spec
// §4.4 "PPG"): each native sample is copied into its own channel, green
// is reconstructed at every red/blue pixel via Hamilton-Adams
// gradient-directed interpolation, and red/blue are reconstructed from
// color differences against the now-complete green plane. There is no
// separate border pass that averages same-color samples: near the edges
// the green pass reads neighbors clamped to the nearest in-range sample,
// and the red/blue pass averages only the neighbors that are in range.
func runPPG(dst, src *buffer.Buf, pool *parallel.Pool) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("demosaic: ppg size mismatch: dst %dx%d src %dx%d", dst.Width, dst.Height, src.Width, src.Height)
	}
	mask := src.Desc.FilterMask

	seedKnownSamples(dst, src, mask)
	interpolateGreenHA(dst, src, mask, pool)
	interpolateColorDifference(dst, mask, pool)
	return nil
}

// seedKnownSamples copies each mosaic sample into the channel it
// natively measures, leaving the other two channels zeroed for the
// later passes to fill.
func seedKnownSamples(dst, src *buffer.Buf, mask uint32) {
	for y := 0; y < src.Height; y++ {
		srow := src.Row(y)
		drow := dst.Row(y)
		for x := 0; x < src.Width; x++ {
			c := fcol(x, y, mask)
			drow[x*4+c] = srow[x]
			drow[x*4+3] = 1
		}
	}
}

// sampleAt reads src's raw mosaic sample at (x, y), clamping to the
// buffer edge — this is the border-fill behavior: an out-of-range
// neighbor degrades to the nearest in-range sample instead of needing a
// separate edge case.
func sampleAt(src *buffer.Buf, x, y int) float32 {
	x = clampi(x, 0, src.Width-1)
	y = clampi(y, 0, src.Height-1)
	return src.Row(y)[x]
}

// interpolateGreenHA fills dst's green channel at every red/blue pixel
// using the Hamilton-Adams rule: estimate green from the average of the
// two nearest green neighbors along each axis, corrected by the second
// derivative of the same-color channel along that axis, then pick the
// axis with the smaller local gradient.
func interpolateGreenHA(dst, src *buffer.Buf, mask uint32, pool *parallel.Pool) {
	body := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			drow := dst.Row(y)
			for x := 0; x < src.Width; x++ {
				if fcol(x, y, mask) == 1 {
					continue // already green
				}
				n := sampleAt(src, x, y-1)
				s := sampleAt(src, x, y+1)
				w := sampleAt(src, x-1, y)
				e := sampleAt(src, x+1, y)
				center2 := 2 * sampleAt(src, x, y)

				nn := sampleAt(src, x, y-2)
				ss := sampleAt(src, x, y+2)
				ww := sampleAt(src, x-2, y)
				ee := sampleAt(src, x+2, y)

				// Range-3 cross-color terms: a third-neighbor green sample
				// along each axis, folded into the gradient sum alongside
				// the range-1 cross-color and range-2 same-color terms.
				n3 := sampleAt(src, x, y-3)
				s3 := sampleAt(src, x, y+3)
				w3 := sampleAt(src, x-3, y)
				e3 := sampleAt(src, x+3, y)

				gradV := absf32(n-s) + absf32(center2-nn-ss) + absf32(n3-s3)
				gradH := absf32(w-e) + absf32(center2-ww-ee) + absf32(w3-e3)

				vEst := (n+s)/2 + (center2-nn-ss)/4
				hEst := (w+e)/2 + (center2-ww-ee)/4

				var g, lo, hi float32
				switch {
				case gradV < gradH:
					g = vEst
					lo, hi = minf32(n, s), maxf32(n, s)
				case gradH < gradV:
					g = hEst
					lo, hi = minf32(w, e), maxf32(w, e)
				default:
					g = (vEst + hEst) / 2
					lo = minf32(minf32(n, s), minf32(w, e))
					hi = maxf32(maxf32(n, s), maxf32(w, e))
				}
				// Clamp the candidate to the min/max of the same-axis
				// neighboring greens so a bad gradient call can't overshoot
				// past what the sensor actually measured nearby.
				if g < lo {
					g = lo
				}
				if g > hi {
					g = hi
				}
				drow[x*4+1] = g
			}
		}
	}
	if pool == nil {
		body(0, src.Height)
	} else {
		pool.ParallelRows(src.Height, body)
	}
}

func minf32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// interpolateColorDifference fills red and blue everywhere they are not
// natively sampled, by averaging the color-minus-green difference of the
// nearest same-color neighbors and adding back the (already complete)
// green value at the target pixel. This keeps color transitions aligned
// with the luminance-carrying green plane instead of interpolating red
// and blue independently.
func interpolateColorDifference(dst *buffer.Buf, mask uint32, pool *parallel.Pool) {
	chans := [2]int{0, 2} // red, blue
	body := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < dst.Width; x++ {
				native := fcol(x, y, mask)
				for _, c := range chans {
					if c == native {
						continue
					}
					dst.Row(y)[x*4+c] = colorDiffEstimate(dst, mask, x, y, c, native)
				}
			}
		}
	}
	if pool == nil {
		body(0, dst.Height)
	} else {
		pool.ParallelRows(dst.Height, body)
	}
}

// colorDiffEstimate estimates channel c at (x, y) whose native sample is
// `native` (1 = green, meaning we need a direct diagonal/axis average of
// c; 0 or 2, meaning we need the diagonal neighbors of the opposite
// color).
func colorDiffEstimate(dst *buffer.Buf, mask uint32, x, y, c, native int) float32 {
	g := dst.Row(y)[x*4+1]
	if native == 1 {
		// On a green pixel, c's same-color neighbors are the axis
		// neighbors one step away (N/S for one color, E/W for the
		// other, depending on row parity); averaging both axes is a
		// fair approximation without tracking which axis holds which.
		sum, n := diffSum(dst, mask, x, y-1, c)
		s2, n2 := diffSum(dst, mask, x, y+1, c)
		w2, n3 := diffSum(dst, mask, x-1, y, c)
		e2, n4 := diffSum(dst, mask, x+1, y, c)
		total := sum + s2 + w2 + e2
		count := n + n2 + n3 + n4
		if count == 0 {
			return g
		}
		return g + total/float32(count)
	}
	// On the opposite primary color pixel, c's nearest same-color
	// samples are the four diagonal neighbors.
	var total float32
	var count int
	for _, d := range [4][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= dst.Width || ny >= dst.Height {
			continue
		}
		if fcol(nx, ny, mask) != c {
			continue
		}
		total += dst.Row(ny)[nx*4+c] - dst.Row(ny)[nx*4+1]
		count++
	}
	if count == 0 {
		return g
	}
	return g + total/float32(count)
}

func diffSum(dst *buffer.Buf, mask uint32, x, y, c int) (float32, int) {
	if x < 0 || y < 0 || x >= dst.Width || y >= dst.Height {
		return 0, 0
	}
	if fcol(x, y, mask) != c {
		return 0, 0
	}
	return dst.Row(y)[x*4+c] - dst.Row(y)[x*4+1], 1
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
