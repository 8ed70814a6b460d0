package builtin

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpColorout maps working RGB into the output profile's RGB. v1 treats
// every output profile as the identity transform against working RGB
// (the engine's documented ICC-passthrough decision); the matrix field
// still exists so a caller with an actual output profile matrix can
// drive it without a schema change later.
const OpColorout = "colorout"

type coloroutPiece struct {
	matrix [9]float32
}

func init() {
	identity := identityMatrix()
	fields := make([]paramdesc.Field, 9)
	for i := 0; i < 9; i++ {
		fields[i] = paramdesc.Field{Name: matrixFieldName(i), Offset: i * 4, Type: paramdesc.Float32, SoftMin: -4, SoftMax: 4, Default: float64(identity[i])}
	}
	paramdesc.Default.Register(OpColorout, fields)

	iop.Default.Register(&iop.Descriptor{
		Name: OpColorout,
		InitPiece: func() iop.Piece {
			return &coloroutPiece{matrix: identityMatrix()}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*coloroutPiece)
			for i := 0; i < 9; i++ {
				v, err := paramdesc.Default.GetFloat(params, OpColorout, matrixFieldName(i))
				if err != nil {
					return false, err
				}
				p.matrix[i] = float32(v)
			}
			return false, nil
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.RGB },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*coloroutPiece)
			for y := 0; y < output.Height; y++ {
				srow := input.Row(y)
				drow := output.Row(y)
				for x := 0; x < output.Width; x++ {
					r, g, b, a := srow[x*4+0], srow[x*4+1], srow[x*4+2], srow[x*4+3]
					drow[x*4+0] = p.matrix[0]*r + p.matrix[1]*g + p.matrix[2]*b
					drow[x*4+1] = p.matrix[3]*r + p.matrix[4]*g + p.matrix[5]*b
					drow[x*4+2] = p.matrix[6]*r + p.matrix[7]*g + p.matrix[8]*b
					drow[x*4+3] = a
				}
			}
			return nil
		},
	})
}
