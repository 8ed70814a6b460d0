package export

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/rawforge/pixelpipe/internal/buffer"
)

// TIFF tag numbers used by the baseline, uncompressed writer below.
const (
	tagImageWidth                = 256
	tagImageLength               = 257
	tagBitsPerSample             = 258
	tagCompression               = 259
	tagPhotometricInterpretation = 262
	tagStripOffsets              = 273
	tagSamplesPerPixel           = 277
	tagRowsPerStrip              = 278
	tagStripByteCounts           = 279
	tagPlanarConfiguration       = 284
	tagExtraSamples              = 338
	tagSampleFormat              = 339
)

const (
	tiffTypeShort = 3
	tiffTypeLong  = 4
)

// sampleFormatUint and sampleFormatFloat are the SampleFormat tag's two
// values this writer produces (unsigned integer for 8/16-bit, IEEE float
// for 32-bit).
const (
	sampleFormatUint  = 1
	sampleFormatFloat = 3
)

// EncodeTIFF writes buf to w as an uncompressed, single-strip baseline
// TIFF (spec "export-tiff(bits ∈ {8,16,32})"). 8 and 16-bit samples are
// display-range integers scaled the same way PNG/JPEG export scales them;
// 32-bit samples are the buffer's raw linear float32 values, unclamped,
// for callers that want the full dynamic range.
//
// Neither the standard library nor golang.org/x/image ships a TIFF
// encoder (both provide Decode only), so this hand-rolls the minimal tag
// set a baseline reader needs: dimensions, bits/samples per pixel,
// uncompressed strip data, and SampleFormat so a 32-bit file is read back
// as float rather than reinterpreted as integer.
func EncodeTIFF(w io.Writer, buf *buffer.Buf, bits int) error {
	if buf.Desc.Channels != 4 {
		return ErrNotRGBA
	}
	bytesPerSample, sampleFormat, err := tiffSampleLayout(bits)
	if err != nil {
		return err
	}

	width, height := buf.Width, buf.Height
	samplesPerPixel := 4
	stripData := encodeTIFFStrip(buf, bytesPerSample, bits)

	const ifdEntryCount = 12
	const headerSize = 8
	ifdSize := 2 + ifdEntryCount*12 + 4
	ifdOffset := uint32(headerSize)
	bitsPerSampleOffset := ifdOffset + uint32(ifdSize)
	sampleFormatOffset := bitsPerSampleOffset + uint32(samplesPerPixel*2)
	stripOffset := sampleFormatOffset + uint32(samplesPerPixel*2)

	var buf2 bytes.Buffer
	buf2.Grow(int(stripOffset) + len(stripData))

	// Header: byte order "II" (little-endian), magic 42, offset to IFD.
	buf2.WriteString("II")
	binary.Write(&buf2, binary.LittleEndian, uint16(42))
	binary.Write(&buf2, binary.LittleEndian, ifdOffset)

	type entry struct {
		tag, typ uint16
		count    uint32
		value    uint32
	}
	entries := []entry{
		{tagImageWidth, tiffTypeLong, 1, uint32(width)},
		{tagImageLength, tiffTypeLong, 1, uint32(height)},
		{tagBitsPerSample, tiffTypeShort, uint32(samplesPerPixel), bitsPerSampleOffset},
		{tagCompression, tiffTypeShort, 1, 1},
		{tagPhotometricInterpretation, tiffTypeShort, 1, 2}, // RGB
		{tagStripOffsets, tiffTypeLong, 1, stripOffset},
		{tagSamplesPerPixel, tiffTypeShort, 1, uint32(samplesPerPixel)},
		{tagRowsPerStrip, tiffTypeLong, 1, uint32(height)},
		{tagStripByteCounts, tiffTypeLong, 1, uint32(len(stripData))},
		{tagPlanarConfiguration, tiffTypeShort, 1, 1},
		{tagExtraSamples, tiffTypeShort, 1, 2}, // unassociated alpha
		{tagSampleFormat, tiffTypeShort, uint32(samplesPerPixel), sampleFormatOffset},
	}

	binary.Write(&buf2, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf2, binary.LittleEndian, e.tag)
		binary.Write(&buf2, binary.LittleEndian, e.typ)
		binary.Write(&buf2, binary.LittleEndian, e.count)
		binary.Write(&buf2, binary.LittleEndian, e.value)
	}
	binary.Write(&buf2, binary.LittleEndian, uint32(0)) // no next IFD

	for i := 0; i < samplesPerPixel; i++ {
		binary.Write(&buf2, binary.LittleEndian, uint16(bits))
	}
	for i := 0; i < samplesPerPixel; i++ {
		binary.Write(&buf2, binary.LittleEndian, uint16(sampleFormat))
	}
	buf2.Write(stripData)

	_, err = w.Write(buf2.Bytes())
	return err
}

func tiffSampleLayout(bits int) (bytesPerSample int, sampleFormat uint16, err error) {
	switch bits {
	case 8:
		return 1, sampleFormatUint, nil
	case 16:
		return 2, sampleFormatUint, nil
	case 32:
		return 4, sampleFormatFloat, nil
	default:
		return 0, 0, ErrInvalidBits
	}
}

// encodeTIFFStrip renders buf's samples into the raw strip bytes
// EncodeTIFF embeds after its IFD.
func encodeTIFFStrip(buf *buffer.Buf, bytesPerSample, bits int) []byte {
	width, height, channels := buf.Width, buf.Height, buf.Desc.Channels
	out := make([]byte, width*height*channels*bytesPerSample)
	white := buf.Desc.ProcessedMaximum

	i := 0
	for y := 0; y < height; y++ {
		row := buf.Row(y)
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				v := row[x*channels+c]
				switch bits {
				case 8:
					out[i] = scale8(v, white[c])
					i++
				case 16:
					binary.LittleEndian.PutUint16(out[i:], scale16(v, white[c]))
					i += 2
				case 32:
					binary.LittleEndian.PutUint32(out[i:], math.Float32bits(v))
					i += 4
				}
			}
		}
	}
	return out
}

func scale16(v, white float32) uint16 {
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
	return uint16(n*65535 + 0.5)
}

// SaveTIFF encodes buf as TIFF directly to path.
func SaveTIFF(path string, buf *buffer.Buf, bits int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeTIFF(f, buf, bits)
}
