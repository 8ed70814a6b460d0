// Package builtin registers the engine's built-in IOP operations (spec
// C8) against the iop and paramdesc registries. Each operation's file
// mirrors the shape of a darktable iop module: a piece struct, a
// parameter table, and the Descriptor hooks, wired together in init().
package builtin

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpRawprepare is the registration name of the sensor-correction module:
// black-level subtraction, white-point normalization, and border crop.
const OpRawprepare = "rawprepare"

type rawpreparePiece struct {
	cropLeft, cropTop, cropRight, cropBottom int
	blackLevel                               float32
	whitePoint                               float32
}

func init() {
	paramdesc.Default.Register(OpRawprepare, []paramdesc.Field{
		{Name: "crop_left", Offset: 0, Type: paramdesc.Int32, SoftMin: 0, SoftMax: 256},
		{Name: "crop_top", Offset: 4, Type: paramdesc.Int32, SoftMin: 0, SoftMax: 256},
		{Name: "crop_right", Offset: 8, Type: paramdesc.Int32, SoftMin: 0, SoftMax: 256},
		{Name: "crop_bottom", Offset: 12, Type: paramdesc.Int32, SoftMin: 0, SoftMax: 256},
		{Name: "black_level", Offset: 16, Type: paramdesc.Float32, SoftMin: 0, SoftMax: 16384},
		{Name: "white_point", Offset: 20, Type: paramdesc.Float32, SoftMin: 1, SoftMax: 1 << 16, Default: 1 << 14},
	})

	iop.Default.Register(&iop.Descriptor{
		Name:  OpRawprepare,
		Flags: 0,
		InitPiece: func() iop.Piece {
			return &rawpreparePiece{whitePoint: 1 << 14}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*rawpreparePiece)
			left, err := paramdesc.Default.GetInt(params, OpRawprepare, "crop_left")
			if err != nil {
				return false, err
			}
			top, err := paramdesc.Default.GetInt(params, OpRawprepare, "crop_top")
			if err != nil {
				return false, err
			}
			right, err := paramdesc.Default.GetInt(params, OpRawprepare, "crop_right")
			if err != nil {
				return false, err
			}
			bottom, err := paramdesc.Default.GetInt(params, OpRawprepare, "crop_bottom")
			if err != nil {
				return false, err
			}
			black, err := paramdesc.Default.GetFloat(params, OpRawprepare, "black_level")
			if err != nil {
				return false, err
			}
			white, err := paramdesc.Default.GetFloat(params, OpRawprepare, "white_point")
			if err != nil {
				return false, err
			}
			p.cropLeft, p.cropTop, p.cropRight, p.cropBottom = int(left), int(top), int(right), int(bottom)
			p.blackLevel = float32(black)
			p.whitePoint = float32(white)
			return false, nil
		},
		ModifyROIOut: func(piece iop.Piece, in roi.Record) roi.Record {
			p := piece.(*rawpreparePiece)
			return roi.Record{
				X:      0,
				Y:      0,
				Width:  in.Width - p.cropLeft - p.cropRight,
				Height: in.Height - p.cropTop - p.cropBottom,
				Scale:  in.Scale,
			}
		},
		ModifyROIIn: func(piece iop.Piece, out roi.Record) roi.Record {
			p := piece.(*rawpreparePiece)
			return roi.Record{
				X:      out.X + p.cropLeft,
				Y:      out.Y + p.cropTop,
				Width:  out.Width,
				Height: out.Height,
				Scale:  out.Scale,
			}
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*rawpreparePiece)
			span := p.whitePoint - p.blackLevel
			if span <= 0 {
				span = 1
			}
			for y := 0; y < output.Height; y++ {
				srcY := y + p.cropTop
				srow := input.Row(srcY)
				drow := output.Row(y)
				for x := 0; x < output.Width; x++ {
					srcX := x + p.cropLeft
					v := (srow[srcX] - p.blackLevel) / span
					if v < 0 {
						v = 0
					}
					drow[x] = v
				}
			}
			output.Desc.Black = [4]float32{}
			output.Desc.White = [4]float32{1, 1, 1, 1}
			output.Desc.ProcessedMaximum = [4]float32{1, 1, 1, 1}
			return nil
		},
	})
}
