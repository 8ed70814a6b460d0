package demosaic

import (
	"sort"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// medianPrefilter applies PPG's optional one-pass 3x3 conditional median
// (spec §4.4): a no-op when threshold <= 0. Samples in the 3x3
// neighborhood further than threshold from the center are "banished" by
// adding 64, pushing them to the high end of the sort order so the
// median favors the conforming samples. If the selected median came
// from a banished sample and exactly one sample in the neighborhood was
// not banished, the +64 offset is undone before the value is written —
// with only one real conformer, treating the neighborhood as suspect
// and falling back to the raw candidate is safer than trusting the
// banish adjustment.
func medianPrefilter(dst *buffer.Buf, threshold float32, pool *parallel.Pool) {
	if threshold <= 0 {
		return
	}
	src := make([]float32, len(dst.Data))
	copy(src, dst.Data)
	ch := dst.Desc.Channels
	read := func(x, y, c int) float32 {
		x = clampi(x, 0, dst.Width-1)
		y = clampi(y, 0, dst.Height-1)
		return src[(y*dst.Width+x)*ch+c]
	}

	body := func(y0, y1 int) {
		var samples [9]float32
		var orig [9]float32
		var banished [9]bool
		var idxs [9]int
		for y := y0; y < y1; y++ {
			drow := dst.Row(y)
			for x := 0; x < dst.Width; x++ {
				for c := 0; c < 3; c++ {
					center := read(x, y, c)
					conformers := 0
					i := 0
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							v := read(x+dx, y+dy, c)
							orig[i] = v
							if absf32(v-center) > threshold {
								samples[i] = v + 64
								banished[i] = true
							} else {
								samples[i] = v
								banished[i] = false
								conformers++
							}
							idxs[i] = i
							i++
						}
					}
					sort.Slice(idxs[:], func(a, b int) bool { return samples[idxs[a]] < samples[idxs[b]] })
					medIdx := idxs[4]
					med := samples[medIdx]
					if banished[medIdx] && conformers == 1 {
						med = orig[medIdx]
					}
					drow[x*ch+c] = med
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
