package pixelpipe

import "github.com/rawforge/pixelpipe/internal/buffer"

// Image is the immutable source a Pipeline renders from: a raw mosaic
// (or already-demosaiced) sample buffer plus the metadata that travels
// with it for the lifetime of the render (spec C10).
type Image struct {
	buf *buffer.Buf

	// CameraMake/CameraModel identify the source for history metadata;
	// purely informational to the scheduler.
	CameraMake  string
	CameraModel string
}

// NewImage wraps a sample buffer as an immutable source image. The
// buffer's descriptor (channel count, CFA pattern, black/white levels,
// white balance) travels with it unchanged for the pipeline's lifetime.
func NewImage(buf *buffer.Buf, cameraMake, cameraModel string) *Image {
	return &Image{buf: buf, CameraMake: cameraMake, CameraModel: cameraModel}
}

// Width returns the source image's native pixel width.
func (img *Image) Width() int { return img.buf.Width }

// Height returns the source image's native pixel height.
func (img *Image) Height() int { return img.buf.Height }

// Descriptor returns a copy of the source buffer's typing metadata.
func (img *Image) Descriptor() buffer.Descriptor { return img.buf.Desc }

// IsMosaic reports whether the source is still raw CFA data.
func (img *Image) IsMosaic() bool { return img.buf.Desc.IsMosaic() }

// buffer returns the underlying buffer. Unexported: callers outside the
// package render through Pipeline, never by touching the source buffer
// directly.
func (img *Image) buffer() *buffer.Buf { return img.buf }
