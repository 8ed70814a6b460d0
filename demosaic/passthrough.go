package demosaic

import (
	"fmt"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

func runPassthrough(dst, src *buffer.Buf) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("demosaic: passthrough size mismatch: dst %dx%d src %dx%d",
			dst.Width, dst.Height, src.Width, src.Height)
	}
	copy(dst.Data, src.Data)
	dst.Desc.ProcessedMaximum = src.Desc.ProcessedMaximum
	return nil
}

func runMono(dst, src *buffer.Buf, pool *parallel.Pool) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("demosaic: mono size mismatch: dst %dx%d src %dx%d",
			dst.Width, dst.Height, src.Width, src.Height)
	}
	body := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			srow := src.Row(y)
			drow := dst.Row(y)
			for x := 0; x < src.Width; x++ {
				v := srow[x]
				drow[x*4+0] = v
				drow[x*4+1] = v
				drow[x*4+2] = v
				drow[x*4+3] = 0
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
