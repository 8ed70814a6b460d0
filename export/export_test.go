package export

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"

	"github.com/rawforge/pixelpipe/internal/buffer"
)

func rgbaBuf(t *testing.T, w, h int) *buffer.Buf {
	t.Helper()
	desc := buffer.Descriptor{Channels: 4, ProcessedMaximum: [4]float32{1, 1, 1, 1}}
	buf, err := buffer.New(w, h, desc)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		row := buf.Row(y)
		for i := range row {
			row[i] = 0.5
		}
	}
	return buf
}

func TestToImageRejectsMosaicBuffer(t *testing.T) {
	buf, err := buffer.New(4, 4, buffer.Descriptor{Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ToImage(buf); err != ErrNotRGBA {
		t.Fatalf("got %v, want ErrNotRGBA", err)
	}
}

func TestEncodePNGProducesDecodableImage(t *testing.T) {
	buf := rgbaBuf(t, 8, 4)
	var out bytes.Buffer
	if err := EncodePNG(&out, buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("got %v, want 8x4", img.Bounds())
	}
}

func TestEncodeJPEGRejectsInvalidQuality(t *testing.T) {
	buf := rgbaBuf(t, 4, 4)
	var out bytes.Buffer
	if err := EncodeJPEG(&out, buf, 0); err != ErrInvalidQuality {
		t.Fatalf("got %v, want ErrInvalidQuality", err)
	}
	if err := EncodeJPEG(&out, buf, 101); err != ErrInvalidQuality {
		t.Fatalf("got %v, want ErrInvalidQuality", err)
	}
}

func TestEncodeTIFFHeaderFields(t *testing.T) {
	buf := rgbaBuf(t, 3, 2)
	var out bytes.Buffer
	if err := EncodeTIFF(&out, buf, 16); err != nil {
		t.Fatal(err)
	}
	data := out.Bytes()
	if string(data[:2]) != "II" {
		t.Fatalf("got byte order %q, want II", data[:2])
	}
	if magic := binary.LittleEndian.Uint16(data[2:4]); magic != 42 {
		t.Fatalf("got magic %d, want 42", magic)
	}
	ifdOffset := binary.LittleEndian.Uint32(data[4:8])
	count := binary.LittleEndian.Uint16(data[ifdOffset : ifdOffset+2])
	if count != 12 {
		t.Fatalf("got %d IFD entries, want 12", count)
	}
}

func TestEncodeTIFFRejectsInvalidBits(t *testing.T) {
	buf := rgbaBuf(t, 2, 2)
	var out bytes.Buffer
	if err := EncodeTIFF(&out, buf, 12); err != ErrInvalidBits {
		t.Fatalf("got %v, want ErrInvalidBits", err)
	}
}
