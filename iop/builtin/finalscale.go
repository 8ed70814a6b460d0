package builtin

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpFinalscale is the chain's tail-end resize: it resamples whatever
// the upstream modules produced to the caller's requested output
// dimensions (spec §4.6 base case, exposed here as an explicit,
// history-recorded step rather than an implicit scheduler action).
const OpFinalscale = "finalscale"

type finalscalePiece struct {
	targetWidth, targetHeight int
}

func init() {
	paramdesc.Default.Register(OpFinalscale, []paramdesc.Field{
		{Name: "target_width", Offset: 0, Type: paramdesc.Int32, SoftMin: 1, SoftMax: 1 << 16},
		{Name: "target_height", Offset: 4, Type: paramdesc.Int32, SoftMin: 1, SoftMax: 1 << 16},
	})

	iop.Default.Register(&iop.Descriptor{
		Name: OpFinalscale,
		InitPiece: func() iop.Piece {
			return &finalscalePiece{}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*finalscalePiece)
			w, err := paramdesc.Default.GetInt(params, OpFinalscale, "target_width")
			if err != nil {
				return false, err
			}
			h, err := paramdesc.Default.GetInt(params, OpFinalscale, "target_height")
			if err != nil {
				return false, err
			}
			p.targetWidth, p.targetHeight = int(w), int(h)
			return false, nil
		},
		ModifyROIOut: func(piece iop.Piece, in roi.Record) roi.Record {
			p := piece.(*finalscalePiece)
			if p.targetWidth <= 0 || p.targetHeight <= 0 {
				return in
			}
			return roi.Record{X: 0, Y: 0, Width: p.targetWidth, Height: p.targetHeight, Scale: in.Scale}
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			if output.Width == input.Width && output.Height == input.Height {
				copy(output.Data, input.Data)
				return nil
			}
			return buffer.Zoom(output, input)
		},
	})
}
