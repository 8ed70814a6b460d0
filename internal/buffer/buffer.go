// Package buffer implements the engine's out-of-band typed pixel buffer:
// a contiguous float32 sample array plus the descriptor that travels with
// it module to module (channel count, datatype, Bayer/X-Trans geometry,
// white-balance coefficients, processed maximum, colorspace tag).
//
// Buffers are allocated 64-byte aligned so kernels can assume cache-line
// alignment without a defensive check on every row.
package buffer

import (
	"errors"

	"github.com/rawforge/pixelpipe/internal/colorspace"
)

// Errors returned by buffer construction and access.
var (
	ErrInvalidDimensions = errors.New("buffer: invalid width or height")
	ErrInvalidChannels   = errors.New("buffer: channels must be 1 or 4")
	ErrOutOfBounds       = errors.New("buffer: coordinates out of bounds")
)

// DataType is the per-sample storage type. The scheduler works in float32
// throughout; DataType records what the *source* sample width was so
// rawprepare/output encoders can reason about bit depth.
type DataType uint8

const (
	Float32 DataType = iota
	UInt16
	UInt8
)

// FilterMono is the FilterMask sentinel for a monochrome sensor (no CFA).
const FilterMono uint32 = 0

// FilterXTrans is the FilterMask sentinel for a 6x6 X-Trans sensor; the
// actual color assignment lives in the Descriptor's XTrans table.
const FilterXTrans uint32 = 9

// Descriptor is the out-of-band typing that travels alongside a Buf.
// A module's OutputFormat hook may mutate a copy of this before the module
// writes its output buffer.
type Descriptor struct {
	Channels         int
	DataType         DataType
	FilterMask       uint32
	XTrans           [6][6]uint8
	Black            [4]float32
	White            [4]float32
	WhiteBalance     [4]float32
	ProcessedMaximum [4]float32
	Colorspace       colorspace.Tag
}

// IsMosaic reports whether the descriptor still describes single-channel
// CFA data (as opposed to post-demosaic RGB).
func (d Descriptor) IsMosaic() bool { return d.Channels == 1 }

// DefaultDescriptor returns the descriptor the scheduler seeds a render
// with: the eventual 4-channel float RGB the tail of the chain produces.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Channels:         4,
		DataType:         Float32,
		Colorspace:       colorspace.RGB,
		ProcessedMaximum: [4]float32{1, 1, 1, 1},
	}
}

// Buf is a contiguous, 64-byte-aligned pixel buffer with Descriptor.Channels
// interleaved float32 samples per pixel.
type Buf struct {
	Data   []float32 // aligned view; len == Width*Height*Descriptor.Channels
	raw    []float32 // backing allocation, oversized for alignment
	Width  int
	Height int
	Desc   Descriptor
}

// Align is the byte alignment every Buf allocation guarantees.
const Align = 64

// alignFloats is how many leading float32 elements Align can require as
// padding in the worst case (Align bytes / 4 bytes per float32).
const alignFloats = Align / 4

// New allocates a buffer of the given dimensions and descriptor, zeroed.
func New(width, height int, desc Descriptor) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if desc.Channels != 1 && desc.Channels != 4 {
		return nil, ErrInvalidChannels
	}
	n := width * height * desc.Channels
	raw := make([]float32, n+alignFloats)
	data := alignedSlice(raw, n)
	return &Buf{Data: data, raw: raw, Width: width, Height: height, Desc: desc}, nil
}

func alignedSlice(raw []float32, n int) []float32 {
	off := alignOffset(raw)
	return raw[off : off+n]
}

// At returns the interleaved sample slice for pixel (x,y).
func (b *Buf) At(x, y int) []float32 {
	i := (y*b.Width + x) * b.Desc.Channels
	return b.Data[i : i+b.Desc.Channels]
}

// Row returns the interleaved sample slice for an entire row y, indexed
// as row[x*Desc.Channels+c]. Kernels that scan a row left to right use
// this instead of repeated single-pixel At calls.
func (b *Buf) Row(y int) []float32 {
	i := y * b.Width * b.Desc.Channels
	return b.Data[i : i+b.Width*b.Desc.Channels]
}

// InBounds reports whether (x,y) lies within the buffer.
func (b *Buf) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Clear zeroes the buffer contents in place.
func (b *Buf) Clear() {
	for i := range b.Data {
		b.Data[i] = 0
	}
}

// Clone returns a fresh buffer with the same dimensions/descriptor and a
// copy of the pixel data.
func (b *Buf) Clone() *Buf {
	out, _ := New(b.Width, b.Height, b.Desc)
	copy(out.Data, b.Data)
	return out
}
