package demosaic

import (
	"fmt"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// runHalfSize collapses each aligned 2x2 Bayer block of src into one RGB
// pixel of dst: the two green samples are averaged, red and blue are
// taken directly. dst must be sized to floor(src.Width/2) x
// floor(src.Height/2) (spec §4.4 half-size fast path).
func runHalfSize(dst, src *buffer.Buf, pool *parallel.Pool) error {
	wantW, wantH := src.Width/2, src.Height/2
	if dst.Width != wantW || dst.Height != wantH {
		return fmt.Errorf("demosaic: half-size dst must be %dx%d, got %dx%d", wantW, wantH, dst.Width, dst.Height)
	}
	mask := src.Desc.FilterMask
	body := func(by0, by1 int) {
		for by := by0; by < by1; by++ {
			sy := by * 2
			drow := dst.Row(by)
			for bx := 0; bx < dst.Width; bx++ {
				sx := bx * 2
				var r, g, b float32
				var gn int
				for dy := 0; dy < 2; dy++ {
					srow := src.Row(sy + dy)
					for dx := 0; dx < 2; dx++ {
						v := srow[sx+dx]
						switch fcol(sx+dx, sy+dy, mask) {
						case 0:
							r = v
						case 1:
							g += v
							gn++
						case 2:
							b = v
						}
					}
				}
				if gn > 0 {
					g /= float32(gn)
				}
				drow[bx*4+0] = r
				drow[bx*4+1] = g
				drow[bx*4+2] = b
				drow[bx*4+3] = 1
			}
		}
	}
	if pool == nil {
		body(0, dst.Height)
	} else {
		pool.ParallelRows(dst.Height, body)
	}
	return nil
}
