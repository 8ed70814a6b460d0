package builtin

import (
	"math"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpExposure applies a black-point offset and a stop-based linear gain,
// the working-RGB tone adjustment before color output conversion.
const OpExposure = "exposure"

type exposurePiece struct {
	black float32
	gain  float32
}

func init() {
	paramdesc.Default.Register(OpExposure, []paramdesc.Field{
		{Name: "black", Offset: 0, Type: paramdesc.Float32, SoftMin: -0.1, SoftMax: 0.1},
		{Name: "exposure", Offset: 4, Type: paramdesc.Float32, SoftMin: -3, SoftMax: 6},
	})

	iop.Default.Register(&iop.Descriptor{
		Name: OpExposure,
		InitPiece: func() iop.Piece {
			return &exposurePiece{gain: 1}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*exposurePiece)
			black, err := paramdesc.Default.GetFloat(params, OpExposure, "black")
			if err != nil {
				return false, err
			}
			stops, err := paramdesc.Default.GetFloat(params, OpExposure, "exposure")
			if err != nil {
				return false, err
			}
			p.black = float32(black)
			p.gain = float32(math.Pow(2, stops))
			return false, nil
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*exposurePiece)
			for y := 0; y < output.Height; y++ {
				srow := input.Row(y)
				drow := output.Row(y)
				for x := 0; x < output.Width*4; x += 4 {
					for c := 0; c < 3; c++ {
						v := (srow[x+c] - p.black) * p.gain
						if v < 0 {
							v = 0
						}
						drow[x+c] = v
					}
					drow[x+3] = srow[x+3]
				}
			}
			for c := range output.Desc.ProcessedMaximum {
				output.Desc.ProcessedMaximum[c] = input.Desc.ProcessedMaximum[c] * p.gain
			}
			return nil
		},
	})
}
