package builtin

import (
	"github.com/rawforge/pixelpipe/demosaic"
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpDemosaic wraps the demosaic package's CFA reconstruction as an IOP
// module (spec C8 delegating to C7).
const OpDemosaic = "demosaic"

type demosaicPiece struct {
	opt      demosaic.Options
	disabled bool
}

func init() {
	paramdesc.Default.Register(OpDemosaic, []paramdesc.Field{
		{Name: "half_size", Offset: 0, Type: paramdesc.Bool},
		{Name: "green_eq_global", Offset: 4, Type: paramdesc.Bool},
		{Name: "green_eq_local", Offset: 8, Type: paramdesc.Bool},
		{Name: "color_smoothing_passes", Offset: 12, Type: paramdesc.Int32, SoftMin: 0, SoftMax: 5},
		{Name: "median_threshold", Offset: 16, Type: paramdesc.Float32, SoftMin: 0, SoftMax: 1},
	})

	iop.Default.Register(&iop.Descriptor{
		Name:  OpDemosaic,
		Flags: iop.AllowTiling,
		InitPiece: func() iop.Piece {
			return &demosaicPiece{}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*demosaicPiece)
			halfSize, err := paramdesc.Default.GetBool(params, OpDemosaic, "half_size")
			if err != nil {
				return false, err
			}
			geGlobal, err := paramdesc.Default.GetBool(params, OpDemosaic, "green_eq_global")
			if err != nil {
				return false, err
			}
			geLocal, err := paramdesc.Default.GetBool(params, OpDemosaic, "green_eq_local")
			if err != nil {
				return false, err
			}
			passes, err := paramdesc.Default.GetInt(params, OpDemosaic, "color_smoothing_passes")
			if err != nil {
				return false, err
			}
			medianThreshold, err := paramdesc.Default.GetFloat(params, OpDemosaic, "median_threshold")
			if err != nil {
				return false, err
			}
			p.opt = demosaic.Options{
				HalfSize:             halfSize,
				GreenEqGlobal:        geGlobal,
				GreenEqLocal:         geLocal,
				ColorSmoothingPasses: int(passes),
				MedianThreshold:      float32(medianThreshold),
			}
			return false, nil
		},
		OutputFormat: func(piece iop.Piece, desc buffer.Descriptor) buffer.Descriptor {
			p := piece.(*demosaicPiece)
			if !desc.IsMosaic() {
				p.disabled = true
				return desc
			}
			p.disabled = false
			desc.Channels = 4
			if p.opt.HalfSize {
				// Half-size output halves the pixel grid; the scheduler
				// sizes the output buffer from the ROI it solves through
				// ModifyROIIn, so only the channel count is set here.
			}
			return desc
		},
		ModifyROIOut: func(piece iop.Piece, in roi.Record) roi.Record {
			p := piece.(*demosaicPiece)
			if p.opt.HalfSize {
				return roi.Record{X: in.X / 2, Y: in.Y / 2, Width: in.Width / 2, Height: in.Height / 2, Scale: in.Scale}
			}
			return in
		},
		ModifyROIIn: func(piece iop.Piece, out roi.Record) roi.Record {
			p := piece.(*demosaicPiece)
			in := roi.SnapBayer(out)
			if p.opt.HalfSize {
				in.X *= 2
				in.Y *= 2
				in.Width *= 2
				in.Height *= 2
			}
			return in
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*demosaicPiece)
			if p.disabled || !input.Desc.IsMosaic() {
				copy(output.Data, input.Data)
				return nil
			}
			return demosaic.Run(output, input, p.opt, nil)
		},
	})
}
