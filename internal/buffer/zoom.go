package buffer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Zoom resamples a 4-channel src buffer into a pre-allocated dst buffer of
// a possibly different size, implementing the scheduler's base-case
// "bilinear clip-and-zoom" fast path (spec §4.6 step 2b) for scale < 1.0.
//
// The resample goes through golang.org/x/image/draw's bilinear scaler,
// which operates on image.Image/draw.Image; imageView below bridges our
// interleaved float32 samples to that interface. Samples are clamped to
// [0,1] at the bridge, which is lossless for display-range RGB but not for
// buffers carrying values above white (HDR highlights).
func Zoom(dst, src *Buf) error {
	if src.Desc.Channels != 4 || dst.Desc.Channels != 4 {
		return ErrInvalidChannels
	}
	srcView := &imageView{buf: src}
	dstView := &imageView{buf: dst}
	draw.BiLinear.Scale(dstView, dstView.Bounds(), srcView, srcView.Bounds(), draw.Src, nil)
	return nil
}

// imageView adapts a 4-channel Buf to image.Image and draw.Image so the
// x/image/draw scalers can operate on it directly.
type imageView struct {
	buf *Buf
}

func (v *imageView) ColorModel() color.Model { return color.NRGBA64Model }

func (v *imageView) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.buf.Width, v.buf.Height)
}

func (v *imageView) At(x, y int) color.Color {
	if !v.buf.InBounds(x, y) {
		return color.NRGBA64{}
	}
	p := v.buf.At(x, y)
	return color.NRGBA64{
		R: clampU16(p[0]),
		G: clampU16(p[1]),
		B: clampU16(p[2]),
		A: clampU16(p[3]),
	}
}

func (v *imageView) Set(x, y int, c color.Color) {
	if !v.buf.InBounds(x, y) {
		return
	}
	nc := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	p := v.buf.At(x, y)
	p[0] = float32(nc.R) / 65535
	p[1] = float32(nc.G) / 65535
	p[2] = float32(nc.B) / 65535
	p[3] = float32(nc.A) / 65535
}

func clampU16(f float32) uint16 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 65535
	}
	return uint16(f * 65535)
}
