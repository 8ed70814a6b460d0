package builtin

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpGamma is the tail of every built-in order table (spec §4.2): it
// applies the sRGB transfer function, the last step before pixels leave
// linear light for display or encoding.
const OpGamma = "gamma"

type gammaPiece struct {
	enabled bool
}

func init() {
	paramdesc.Default.Register(OpGamma, []paramdesc.Field{
		{Name: "enabled", Offset: 0, Type: paramdesc.Bool, Default: 1},
	})

	iop.Default.Register(&iop.Descriptor{
		Name: OpGamma,
		InitPiece: func() iop.Piece {
			return &gammaPiece{enabled: true}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*gammaPiece)
			enabled, err := paramdesc.Default.GetBool(params, OpGamma, "enabled")
			if err != nil {
				return false, err
			}
			p.enabled = enabled
			return false, nil
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*gammaPiece)
			for y := 0; y < output.Height; y++ {
				srow := input.Row(y)
				drow := output.Row(y)
				for x := 0; x < output.Width; x++ {
					for c := 0; c < 3; c++ {
						v := srow[x*4+c]
						if p.enabled {
							v = colorspace.LinearToSRGB(v)
						}
						drow[x*4+c] = v
					}
					drow[x*4+3] = srow[x*4+3]
				}
			}
			return nil
		},
	})
}
