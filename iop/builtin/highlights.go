package builtin

import (
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

// OpHighlights handles blown highlights in mosaic space before demosaic:
// in clip mode a sample above the threshold is clipped to it, and in
// reconstruct-color mode it is replaced by the average of its unclipped
// same-color neighbors, capped at the threshold.
const OpHighlights = "highlights"

const (
	highlightModeClip int64 = iota
	highlightModeReconstructColor
)

type highlightsPiece struct {
	mode      int64
	threshold float32
}

func init() {
	paramdesc.Default.Register(OpHighlights, []paramdesc.Field{
		{Name: "mode", Offset: 0, Type: paramdesc.Int32, SoftMin: 0, SoftMax: 1},
		{Name: "threshold", Offset: 4, Type: paramdesc.Float32, SoftMin: 0.5, SoftMax: 1, Default: 1},
	})

	iop.Default.Register(&iop.Descriptor{
		Name: OpHighlights,
		InitPiece: func() iop.Piece {
			return &highlightsPiece{threshold: 1}
		},
		CommitParams: func(piece iop.Piece, params []byte) (bool, error) {
			p := piece.(*highlightsPiece)
			mode, err := paramdesc.Default.GetInt(params, OpHighlights, "mode")
			if err != nil {
				return false, err
			}
			threshold, err := paramdesc.Default.GetFloat(params, OpHighlights, "threshold")
			if err != nil {
				return false, err
			}
			p.mode = mode
			p.threshold = float32(threshold)
			return false, nil
		},
		InputColorspace:  func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		OutputColorspace: func(iop.Piece) colorspace.Tag { return colorspace.Raw },
		Process: func(piece iop.Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error {
			p := piece.(*highlightsPiece)
			mask := input.Desc.FilterMask
			for y := 0; y < output.Height; y++ {
				srow := input.Row(y)
				drow := output.Row(y)
				for x := 0; x < output.Width; x++ {
					v := srow[x]
					if v > p.threshold {
						switch p.mode {
						case highlightModeReconstructColor:
							drow[x] = reconstructHighlight(input, mask, x, y, p.threshold)
						default:
							drow[x] = p.threshold
						}
						continue
					}
					drow[x] = v
				}
			}
			return nil
		},
	})
}

// reconstructHighlight estimates a clipped sample from the local average
// of its same-color neighbors, so a blown single channel borrows detail
// from nearby unclipped samples of the same color instead of flattening
// to a hard clip.
func reconstructHighlight(src *buffer.Buf, mask uint32, x, y int, threshold float32) float32 {
	c := fcol(x, y, mask)
	var sum float32
	var n int
	for dy := -2; dy <= 2; dy += 2 {
		ny := y + dy
		if ny < 0 || ny >= src.Height {
			continue
		}
		row := src.Row(ny)
		for dx := -2; dx <= 2; dx += 2 {
			nx := x + dx
			if nx < 0 || nx >= src.Width || fcol(nx, ny, mask) != c {
				continue
			}
			v := row[nx]
			if v >= threshold {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return threshold
	}
	avg := sum / float32(n)
	if avg > threshold {
		return threshold
	}
	return avg
}
