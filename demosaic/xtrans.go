package demosaic

import (
	"fmt"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// xtransColor returns the CFA color (0=R, 1=G, 2=B) at (x, y) from the
// buffer descriptor's 6x6 X-Trans tile.
func xtransColor(desc *buffer.Descriptor, x, y int) int {
	return int(desc.XTrans[y%6][x%6])
}

// runXTransFallback reconstructs an X-Trans mosaic with a non-directional
// same-color average: unlike PPG's gradient-directed green pass, every
// channel at every pixel is simply the mean of its nearest same-color
// samples in a 5x5 window. Lower quality than a full Markesteijn
// reconstruction, which the spec explicitly scopes out as a "fallback".
func runXTransFallback(dst, src *buffer.Buf, pool *parallel.Pool) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("demosaic: xtrans size mismatch: dst %dx%d src %dx%d", dst.Width, dst.Height, src.Width, src.Height)
	}
	const radius = 2
	body := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			drow := dst.Row(y)
			for x := 0; x < src.Width; x++ {
				native := xtransColor(&src.Desc, x, y)
				drow[x*4+native] = src.Row(y)[x]
				drow[x*4+3] = 1
				for c := 0; c < 3; c++ {
					if c == native {
						continue
					}
					var sum float32
					var n int
					for dy := -radius; dy <= radius; dy++ {
						ny := y + dy
						if ny < 0 || ny >= src.Height {
							continue
						}
						srow := src.Row(ny)
						for dx := -radius; dx <= radius; dx++ {
							nx := x + dx
							if nx < 0 || nx >= src.Width {
								continue
							}
							if xtransColor(&src.Desc, nx, ny) != c {
								continue
							}
							sum += srow[nx]
							n++
						}
					}
					if n > 0 {
						drow[x*4+c] = sum / float32(n)
					}
				}
			}
		}
	}
	if pool == nil {
		body(0, src.Height)
	} else {
		pool.ParallelRows(src.Height, body)
	}
	return nil
}
