package buffer

import "testing"

func TestNewInvalidDimensions(t *testing.T) {
	if _, err := New(0, 10, DefaultDescriptor()); err != ErrInvalidDimensions {
		t.Fatalf("want ErrInvalidDimensions, got %v", err)
	}
}

func TestNewInvalidChannels(t *testing.T) {
	d := DefaultDescriptor()
	d.Channels = 3
	if _, err := New(4, 4, d); err != ErrInvalidChannels {
		t.Fatalf("want ErrInvalidChannels, got %v", err)
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct{ w, h int }{
		{1, 1}, {3, 5}, {17, 1}, {640, 480}, {1, 1000003},
	}
	for _, tt := range tests {
		b, err := New(tt.w, tt.h, DefaultDescriptor())
		if err != nil {
			t.Fatalf("New(%d,%d): %v", tt.w, tt.h, err)
		}
		if err := AssertAligned(b); err != nil {
			t.Errorf("New(%d,%d): not aligned: %v", tt.w, tt.h, err)
		}
	}
}

func TestAtRoundTrip(t *testing.T) {
	b, err := New(4, 4, DefaultDescriptor())
	if err != nil {
		t.Fatal(err)
	}
	p := b.At(2, 3)
	p[0], p[1], p[2], p[3] = 0.1, 0.2, 0.3, 1.0
	got := b.At(2, 3)
	if got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.3 || got[3] != 1.0 {
		t.Fatalf("got %v", got)
	}
}

func TestCopyROIClampsAndZeroFills(t *testing.T) {
	src, _ := New(4, 4, DefaultDescriptor())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			p := src.At(x, y)
			p[0] = float32(y*4 + x)
			p[3] = 1
		}
	}
	dst, _ := New(4, 4, DefaultDescriptor())
	// Request a ROI shifted by (2,2): half of dst falls outside src.
	CopyROI(dst, src, 2, 2)

	if got := dst.At(0, 0)[0]; got != src.At(2, 2)[0] {
		t.Errorf("in-bounds pixel: got %v want %v", got, src.At(2, 2)[0])
	}
	if got := dst.At(3, 3)[0]; got != 0 {
		t.Errorf("out-of-bounds pixel should be zero-filled, got %v", got)
	}
}

func TestPoolReuse(t *testing.T) {
	p := NewPool(2)
	b1, _ := p.Get(8, 8, DefaultDescriptor())
	b1.At(0, 0)[0] = 42
	p.Put(b1)

	b2, _ := p.Get(8, 8, DefaultDescriptor())
	if b2.At(0, 0)[0] != 0 {
		t.Errorf("pooled buffer should be cleared on Get, got %v", b2.At(0, 0)[0])
	}
}

func TestZoomDownscale(t *testing.T) {
	src, _ := New(8, 8, DefaultDescriptor())
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := src.At(x, y)
			p[0], p[1], p[2], p[3] = 1, 1, 1, 1
		}
	}
	dst, _ := New(4, 4, DefaultDescriptor())
	if err := Zoom(dst, src); err != nil {
		t.Fatal(err)
	}
	p := dst.At(2, 2)
	if p[3] < 0.9 {
		t.Errorf("expected near-opaque alpha after downscale of solid image, got %v", p[3])
	}
}
