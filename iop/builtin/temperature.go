package builtin

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpTemperature is the white-balance module: per-CFA-color gain applied
// in mosaic space, before demosaic.
const OpTemperature = "temperature"

type temperaturePiece struct {
	coeffs [4]float32 // indexed by fcol: R, G, B, G2
}

func init() {
	paramdesc.Default.Register(OpTemperature, []paramdesc.Field{
		{Name: "red", Offset: 0, Type: paramdesc.Float32, SoftMin: 0.1, SoftMax: 8, Default: 1},
		{Name: "green", Offset: 4, Type: paramdesc.Float32, SoftMin: 0.1, SoftMax: 8, Default: 1},
		{Name: "blue", Offset: 8, Type: paramdesc.Float32, SoftMin: 0.1, SoftMax: 8, Default: 1},
		{Name: "green2", Offset: 12, Type: paramdesc.Float32, SoftMin: 0.1, SoftMax: 8, Default: 1},
	})

	iop.Default.Register(&iop.Descriptor{
		Name: OpTemperature,
		InitPiece: func() iop.Piece {
			return &temperaturePiece{coeffs: [4]float32{1, 1, 1, 1}}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*temperaturePiece)
			for i, field := range []string{"red", "green", "blue", "green2"} {
				v, err := paramdesc.Default.GetFloat(params, OpTemperature, field)
				if err != nil {
					return false, err
				}
				p.coeffs[i] = float32(v)
			}
			return false, nil
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*temperaturePiece)
			if input.Desc.Channels == 4 {
				// Post-demosaic RGBA: the two green sub-populations have
				// already been merged into one channel, so apply their
				// averaged gain per spec §4.8's 4-channel multiply.
				greenGain := (p.coeffs[1] + p.coeffs[3]) / 2
				gains := [4]float32{p.coeffs[0], greenGain, p.coeffs[2], 1}
				for y := 0; y < output.Height; y++ {
					srow := input.Row(y)
					drow := output.Row(y)
					for x := 0; x < output.Width*4; x += 4 {
						for c := 0; c < 4; c++ {
							v := srow[x+c] * gains[c]
							if c < 3 && v < 0 {
								v = 0
							}
							drow[x+c] = v
						}
					}
				}
				return nil
			}
			mask := input.Desc.FilterMask
			for y := 0; y < output.Height; y++ {
				srow := input.Row(y)
				drow := output.Row(y)
				for x := 0; x < output.Width; x++ {
					// green2's distinct gain only matters for the
					// sub-pixel tint correction full PPG tracks; this
					// reconstruction applies a single green gain to
					// both green sub-populations.
					v := srow[x] * p.coeffs[fcol(x, y, mask)]
					if v < 0 {
						v = 0
					}
					drow[x] = v
				}
			}
			return nil
		},
	})
}
