// Package export bridges a rendered pixelpipe buffer to the stdlib image
// encoders (spec §6: "export-jpeg", "export-png", "export-tiff"). The
// engine itself never encodes a file; export is the one place pixelpipe
// output meets image/jpeg, image/png and a hand-rolled baseline TIFF
// writer (the standard library and golang.org/x/image both ship TIFF
// decoders only, no encoder).
package export

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/rawforge/pixelpipe/internal/buffer"
)

// Errors returned by the export functions.
var (
	ErrNotRGBA        = errors.New("export: buffer must have 4 channels to export")
	ErrInvalidQuality = errors.New("export: quality must be in [1,100]")
	ErrInvalidBits    = errors.New("export: bits must be 8, 16, or 32")
)

// bridge adapts a *buffer.Buf as a read-only image.Image, the same role
// Pixmap.ToImage/At play in the teacher library: a thin view that lets
// the stdlib encoders walk the buffer without pixelpipe copying it into
// a second representation up front.
type bridge struct {
	buf *buffer.Buf
}

// Bounds implements image.Image.
func (b bridge) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.buf.Width, b.buf.Height)
}

// ColorModel implements image.Image.
func (b bridge) ColorModel() color.Model { return color.NRGBAModel }

// At implements image.Image, scaling each float32 sample against the
// buffer's processed maximum and clamping to the display range. A mosaic
// (1-channel) buffer has no defined color mapping; callers must render
// through the full chain (to channels=4) before exporting.
func (b bridge) At(x, y int) color.Color {
	if !b.buf.InBounds(x, y) || b.buf.Desc.Channels != 4 {
		return color.NRGBA{}
	}
	px := b.buf.At(x, y)
	white := b.buf.Desc.ProcessedMaximum
	return color.NRGBA{
		R: scale8(px[0], white[0]),
		G: scale8(px[1], white[1]),
		B: scale8(px[2], white[2]),
		A: scale8(px[3], white[3]),
	}
}

func scale8(v, white float32) uint8 {
	if white <= 0 {
		white = 1
	}
	n := v / white
	if n < 0 {
		n = 0
	}
	if n > 1 {
		n = 1
	}
	return uint8(n*255 + 0.5)
}

// ToImage converts buf into a standalone *image.NRGBA, the form every
// stdlib encoder accepts directly.
func ToImage(buf *buffer.Buf) (*image.NRGBA, error) {
	if buf.Desc.Channels != 4 {
		return nil, ErrNotRGBA
	}
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	src := bridge{buf: buf}
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			img.Set(x, y, src.At(x, y))
		}
	}
	return img, nil
}

// EncodePNG writes buf to w as PNG (spec "export-png").
func EncodePNG(w io.Writer, buf *buffer.Buf) error {
	img, err := ToImage(buf)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// EncodeJPEG writes buf to w as JPEG at the given quality (spec
// "export-jpeg(quality ∈ [1,100])").
func EncodeJPEG(w io.Writer, buf *buffer.Buf, quality int) error {
	if quality < 1 || quality > 100 {
		return ErrInvalidQuality
	}
	img, err := ToImage(buf)
	if err != nil {
		return err
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// SavePNG encodes buf as PNG directly to path.
func SavePNG(path string, buf *buffer.Buf) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodePNG(f, buf)
}

// SaveJPEG encodes buf as JPEG directly to path.
func SaveJPEG(path string, buf *buffer.Buf, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeJPEG(f, buf, quality)
}
