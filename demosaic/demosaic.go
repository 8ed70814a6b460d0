// Package demosaic reconstructs full RGB samples from a color filter
// array mosaic (spec C7). It mirrors the teacher's internal/image
// sampling package in structure — a dispatch function choosing among
// several named algorithms by mode/scale/tile-size — but the algorithms
// themselves are CFA reconstruction, not texture resampling.
package demosaic

import (
	"fmt"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
)

// Method names the reconstruction algorithm chosen for one render.
type Method uint8

const (
	// MethodPassthrough is used when the source is not a mosaic (already
	// 4-channel RGB): a plain copy.
	MethodPassthrough Method = iota
	// MethodMono broadcasts a single-channel monochrome sensor's value
	// into all three color channels.
	MethodMono
	// MethodHalfSize decimates each 2x2 Bayer block into one RGB pixel —
	// the fast preview path (spec §4.4: "half-size fast path").
	MethodHalfSize
	// MethodPPG is Patterned Pixel Grouping: green channel first via
	// Hamilton-Adams gradients, then red/blue from color differences.
	MethodPPG
	// MethodXTransFallback handles the 6x6 Fujifilm X-Trans pattern with
	// a simple same-color-average reconstruction (spec §4.4 notes this
	// is a fallback, not full Markesteijn).
	MethodXTransFallback
)

func (m Method) String() string {
	switch m {
	case MethodPassthrough:
		return "passthrough"
	case MethodMono:
		return "mono"
	case MethodHalfSize:
		return "half_size"
	case MethodPPG:
		return "ppg"
	case MethodXTransFallback:
		return "xtrans_fallback"
	default:
		return "unknown"
	}
}

// Options controls dispatch and post-processing (spec §4.4).
type Options struct {
	// HalfSize selects full reconstruction (false) or the half-size fast
	// path (true), independent of the requested output scale — a caller
	// asks for the fast path explicitly rather than it being inferred
	// from ROI scale, so pipeline preview policy stays outside this
	// package.
	HalfSize bool

	// GreenEqLocal/GreenEqGlobal enable green equilibration passes before
	// interpolation (spec: "full-average, local-average, or both").
	GreenEqGlobal bool
	GreenEqLocal  bool

	// ColorSmoothingPasses is the number of 3x3 median-of-differences
	// passes applied after interpolation (0 disables it).
	ColorSmoothingPasses int

	// MedianThreshold gates PPG's optional one-pass 3x3 conditional
	// median prefilter (spec §4.4 "Optional median prefilter"); <= 0
	// disables it.
	MedianThreshold float32
}

// Dispatch selects a Method for the given source descriptor and options
// (spec §4.4 "Dispatch"). An already-4-channel source always passes
// through; a mono sensor always broadcasts; X-Trans only has the
// fallback; otherwise Bayer gets PPG, or half-size decimation when
// Options.HalfSize is set.
func Dispatch(desc buffer.Descriptor, opt Options) Method {
	if !desc.IsMosaic() {
		return MethodPassthrough
	}
	if desc.FilterMask == buffer.FilterMono {
		return MethodMono
	}
	if desc.FilterMask == buffer.FilterXTrans {
		return MethodXTransFallback
	}
	if opt.HalfSize {
		return MethodHalfSize
	}
	return MethodPPG
}

// Run reconstructs src (a mosaic buffer) into dst (a 4-channel RGB
// buffer already sized for the chosen method's output dimensions) using
// the pool for row-parallel dispatch. pool may be nil, in which case
// work runs on the calling goroutine.
func Run(dst, src *buffer.Buf, opt Options, pool *parallel.Pool) error {
	method := Dispatch(src.Desc, opt)

	// Green equilibration must run before interpolation (spec §4.4:
	// "Before PPG"): it corrects the raw mosaic's green channel in place
	// so every method that reads src sees the equilibrated values.
	if opt.GreenEqGlobal || opt.GreenEqLocal {
		greenEqualize(src, opt.GreenEqGlobal, opt.GreenEqLocal, pool)
	}

	switch method {
	case MethodPassthrough:
		return runPassthrough(dst, src)
	case MethodMono:
		return runMono(dst, src, pool)
	case MethodHalfSize:
		return runHalfSize(dst, src, pool)
	case MethodPPG:
		if err := runPPG(dst, src, pool); err != nil {
			return err
		}
		medianPrefilter(dst, opt.MedianThreshold, pool)
	case MethodXTransFallback:
		if err := runXTransFallback(dst, src, pool); err != nil {
			return err
		}
	default:
		return fmt.Errorf("demosaic: unhandled method %v", method)
	}

	for i := 0; i < opt.ColorSmoothingPasses; i++ {
		colorSmooth(dst, pool)
	}
	updateProcessedMaximum(dst)
	return nil
}

// fcol returns the Bayer color index (0=R, 1=G, 2=B) at absolute pixel
// (x, y) for the RGGB-family filter pattern encoded in mask: the low
// two bits select the color of (x%2, y%2) = (0,0), and colors alternate
// along both axes the way a 2x2 Bayer tile always does.
func fcol(x, y int, mask uint32) int {
	// mask packs four 2-bit color indices for the 2x2 tile, reading
	// (0,0),(1,0),(0,1),(1,1) from the low bits upward; this matches how
	// raw libraries commonly encode FILTERS.
	shift := uint((y&1)*2+(x&1)) * 2
	return int((mask >> shift) & 0x3)
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func updateProcessedMaximum(dst *buffer.Buf) {
	var maxv [4]float32
	for y := 0; y < dst.Height; y++ {
		row := dst.Row(y)
		for x := 0; x < dst.Width; x++ {
			for c := 0; c < dst.Desc.Channels; c++ {
				v := row[x*dst.Desc.Channels+c]
				if v > maxv[c] {
					maxv[c] = v
				}
			}
		}
	}
	dst.Desc.ProcessedMaximum = maxv
}
