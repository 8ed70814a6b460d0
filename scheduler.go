package pixelpipe

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/parallel"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// Render produces the pixel data covering want, walking the module chain
// tail to head to solve each module's input ROI and then head to tail to
// execute each module's kernel (spec §4.6, C6).
//
// Render is not safe to call concurrently on the same Pipeline; callers
// wanting concurrent renders should give each goroutine its own Pipeline
// (Pipelines built over the same Image share no mutable state with each
// other once constructed).
func (p *Pipeline) Render(ctx context.Context, want roi.Record) (*buffer.Buf, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	boundaries, err := p.solveROIs(want)
	if err != nil {
		return nil, err
	}

	cur, err := p.fetchBase(boundaries[0])
	if err != nil {
		return nil, err
	}

	for i, m := range p.modules {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.cancel.Load() {
			return nil, coded(CodeGeneric, ErrRenderCancelled)
		}

		roiIn, roiOut := boundaries[i], boundaries[i+1]
		if !m.Enabled || m.forceOff || m.desc.Process == nil {
			if m.desc.Process == nil {
				Logger().Warn("pixelpipe: module has no Process hook, skipped", "op", m.Op, "instance", m.Instance)
			}
			cur = p.passThrough(cur, roiIn, roiOut)
			continue
		}

		out, err := p.runModule(m, cur, roiIn, roiOut)
		if err != nil {
			return nil, wrapRenderError(m.Op, m.Instance, err)
		}
		cur = out
	}

	return cur, nil
}

// solveROIs runs the backward ROI solve (spec §4.6 step 1): starting from
// the requested output ROI and walking the chain tail to head, it returns
// one Record per chain boundary. boundaries[0] is the ROI to fetch from
// the source image; boundaries[i+1] is module i's output ROI (module i's
// input is boundaries[i]); boundaries[len(modules)] equals want.
func (p *Pipeline) solveROIs(want roi.Record) ([]roi.Record, error) {
	n := len(p.modules)
	boundaries := make([]roi.Record, n+1)
	boundaries[n] = want
	for i := n - 1; i >= 0; i-- {
		m := p.modules[i]
		node := roi.BackwardNode{
			Enabled:  m.Enabled && !m.forceOff,
			ModifyIn: m.desc.ModifyInHook(m.piece),
		}
		boundaries[i] = roi.Backward(node, boundaries[i+1])
	}
	if boundaries[0].Width <= 0 || boundaries[0].Height <= 0 {
		return nil, coded(CodeInvalidArg, ErrInvalidROI)
	}
	return boundaries, nil
}

// fetchBase implements the scheduler's base case (spec §4.6 step 2): an
// exact-pixel crop of the source image when r.Scale is 1 (or the source
// is still raw mosaic data, which cannot be meaningfully resampled before
// demosaicing), and a crop-then-bilinear-zoom otherwise.
func (p *Pipeline) fetchBase(r roi.Record) (*buffer.Buf, error) {
	src := p.img.buffer()
	scale := r.Scale
	if scale == 0 {
		scale = 1
	}
	if scale >= 1 || src.Desc.IsMosaic() {
		dst, err := buffer.New(r.Width, r.Height, src.Desc)
		if err != nil {
			return nil, err
		}
		buffer.CopyROI(dst, src, r.X, r.Y)
		return dst, nil
	}

	nativeW := int(math.Round(float64(r.Width) / scale))
	nativeH := int(math.Round(float64(r.Height) / scale))
	if nativeW <= 0 {
		nativeW = 1
	}
	if nativeH <= 0 {
		nativeH = 1
	}
	full, err := buffer.New(nativeW, nativeH, src.Desc)
	if err != nil {
		return nil, err
	}
	buffer.CopyROI(full, src, r.X, r.Y)

	dst, err := buffer.New(r.Width, r.Height, src.Desc)
	if err != nil {
		return nil, err
	}
	if err := buffer.Zoom(dst, full); err != nil {
		return nil, err
	}
	return dst, nil
}

// passThrough implements the "disabled module" rule: a buffer reshaped
// to roiOut's dimensions with cur's content, unchanged. Since a disabled
// node's backward hook is Identity (see solveROIs), roiIn and roiOut are
// the same rectangle here; passThrough only has to handle the case where
// a module was skipped but a downstream neighbor's unaffected ROI still
// differs in size from cur due to an earlier disabled module's own
// upstream neighbor resizing the request.
func (p *Pipeline) passThrough(cur *buffer.Buf, roiIn, roiOut roi.Record) *buffer.Buf {
	if roiIn.Width == roiOut.Width && roiIn.Height == roiOut.Height {
		return cur
	}
	out, err := buffer.New(roiOut.Width, roiOut.Height, cur.Desc)
	if err != nil {
		return cur
	}
	buffer.CopyROI(out, cur, 0, 0)
	return out
}

// runModule executes one enabled module, applying the skip rule and
// tiling dispatch before falling back to a single whole-ROI Process call
// (spec §4.6 steps 2-3).
func (p *Pipeline) runModule(m *ModuleInstance, input *buffer.Buf, roiIn, roiOut roi.Record) (*buffer.Buf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := fnvHash(m.Params)
	if m.cache.valid && m.cache.roiIn.Equal(roiIn) && m.cache.paramsHash == hash {
		return m.cache.output, nil
	}

	// Colorspace adapt (spec §4.6 normal rule): if the upstream buffer's
	// colorspace differs from what this module declares as its input,
	// convert it into a new buffer before the kernel ever sees it.
	if m.desc.InputColorspace != nil {
		adapted, err := adaptColorspace(input, m.desc.InputColorspace(m.piece))
		if err != nil {
			return nil, err
		}
		input = adapted
	}

	outDesc := m.desc.OutputFormatFor(m.piece, input.Desc)
	if m.desc.OutputColorspace != nil {
		outDesc.Colorspace = m.desc.OutputColorspace(m.piece)
	}
	output, err := buffer.New(roiOut.Width, roiOut.Height, outDesc)
	if err != nil {
		return nil, err
	}

	if err := buffer.AssertAligned(input); err != nil {
		return nil, err
	}
	if err := buffer.AssertAligned(output); err != nil {
		return nil, err
	}

	if needsTiling(m, input.Desc, output.Desc, roiIn, roiOut, p.opts.memoryBudget) {
		if err := p.runTiled(m, input, output, roiIn, roiOut); err != nil {
			return nil, err
		}
	} else {
		if err := m.desc.Process(m.piece, input, output, roiIn, roiOut); err != nil {
			return nil, err
		}
	}

	m.cache = renderCache{valid: true, roiIn: roiIn, paramsHash: hash, output: output}
	return output, nil
}

// needsTiling reports whether a module's declared memory multiplier
// would exceed budget for the requested ROI, and whether it has opted
// into tiled dispatch (spec §4.3, §4.6 step 3 "tiling dispatch").
func needsTiling(m *ModuleInstance, inDesc, outDesc buffer.Descriptor, roiIn, roiOut roi.Record, budget int64) bool {
	if !m.desc.Flags.Has(iop.AllowTiling) {
		return false
	}
	spec := m.desc.Tiling(m.piece, roiIn, roiOut)
	inBytes := int64(roiIn.Width) * int64(roiIn.Height) * int64(inDesc.Channels) * 4
	outBytes := int64(roiOut.Width) * int64(roiOut.Height) * int64(outDesc.Channels) * 4
	need := int64(float64(inBytes+outBytes)*spec.Factor) + spec.Overhead
	return need > budget
}

// runTiled splits a module's output ROI into tiles sized to fit the
// pipeline's memory budget, resolves each tile's required input window
// through the module's own ModifyROIIn hook (so overlap/alignment
// requirements like Bayer phase snapping are honored per tile), and
// pastes each tile's result into output (spec §4.6 step 3 "tiling
// dispatch").
func (p *Pipeline) runTiled(m *ModuleInstance, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
	spec := m.desc.Tiling(m.piece, roiIn, roiOut)
	bytesPerPixel := float64(input.Desc.Channels+output.Desc.Channels) * 4 * spec.Factor
	if bytesPerPixel <= 0 {
		bytesPerPixel = 1
	}
	targetPixels := float64(p.opts.memoryBudget) / bytesPerPixel
	tileSize := int(math.Sqrt(targetPixels))
	if tileSize < 64 {
		tileSize = 64
	}
	align := spec.Align
	if align < 1 {
		align = 1
	}

	tiles := parallel.Split(roiOut.Width, roiOut.Height, tileSize, spec.Overlap, align)
	modifyIn := m.desc.ModifyInHook(m.piece)

	work := make([]func(), len(tiles))
	errs := make([]error, len(tiles))
	for idx, t := range tiles {
		idx, t := idx, t
		work[idx] = func() {
			tileOut := roi.Record{X: roiOut.X + t.X, Y: roiOut.Y + t.Y, Width: t.Width, Height: t.Height, Scale: roiOut.Scale}
			tileIn := modifyIn(tileOut)
			localX, localY := tileIn.X-roiIn.X, tileIn.Y-roiIn.Y

			tileInBuf, err := buffer.New(tileIn.Width, tileIn.Height, input.Desc)
			if err != nil {
				errs[idx] = err
				return
			}
			buffer.CopyROI(tileInBuf, input, localX, localY)

			tileOutBuf, err := buffer.New(tileOut.Width, tileOut.Height, output.Desc)
			if err != nil {
				errs[idx] = err
				return
			}
			if err := m.desc.Process(m.piece, tileInBuf, tileOutBuf, tileIn, tileOut); err != nil {
				errs[idx] = err
				return
			}
			pasteTile(output, tileOutBuf, t.X, t.Y)
		}
	}
	p.pool.RunAll(work)

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// pasteTile copies tileBuf's full extent into dst starting at (x,y),
// both in dst's local coordinate space.
func pasteTile(dst, tileBuf *buffer.Buf, x, y int) {
	ch := dst.Desc.Channels
	for row := 0; row < tileBuf.Height; row++ {
		dy := y + row
		if dy < 0 || dy >= dst.Height {
			continue
		}
		srow := tileBuf.Row(row)
		drow := dst.Row(dy)
		for col := 0; col < tileBuf.Width; col++ {
			dx := x + col
			if dx < 0 || dx >= dst.Width {
				continue
			}
			copy(drow[dx*ch:dx*ch+ch], srow[col*ch:col*ch+ch])
		}
	}
}

// adaptColorspace converts input's samples into want when its declared
// colorspace differs, matching spec §3's invariant that a module's declared
// input colorspace equals the upstream buffer's colorspace by execution
// time. Only 4-channel (already demosaiced) buffers have a meaningful
// colorspace to convert between; mosaic data's Raw tag is left alone since
// colorspace.Transform has no defined Raw endpoint.
func adaptColorspace(input *buffer.Buf, want colorspace.Tag) (*buffer.Buf, error) {
	if input.Desc.Channels != 4 || input.Desc.Colorspace == want {
		return input, nil
	}
	desc := input.Desc
	desc.Colorspace = want
	out, err := buffer.New(input.Width, input.Height, desc)
	if err != nil {
		return nil, err
	}
	for y := 0; y < input.Height; y++ {
		srow := input.Row(y)
		drow := out.Row(y)
		for x := 0; x < input.Width; x++ {
			r, g, b, a := srow[x*4+0], srow[x*4+1], srow[x*4+2], srow[x*4+3]
			drow[x*4+0], drow[x*4+1], drow[x*4+2], drow[x*4+3] =
				colorspace.Transform(r, g, b, a, input.Desc.Colorspace, want)
		}
	}
	return out, nil
}

// fnvHash hashes a parameter record for the skip rule's change check
// (spec §4.6 step 3: "if params and ROI are unchanged since last
// render, reuse the cached output").
func fnvHash(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
