package pixelpipe

import (
	"context"
	"errors"
	"testing"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/roi"
)

func bayerImage(w, h int) *Image {
	desc := buffer.Descriptor{
		Channels:         1,
		FilterMask:       0x94, // RGGB
		White:            [4]float32{1, 1, 1, 1},
		ProcessedMaximum: [4]float32{1, 1, 1, 1},
	}
	buf, err := buffer.New(w, h, desc)
	if err != nil {
		panic(err)
	}
	for y := 0; y < h; y++ {
		row := buf.Row(y)
		for x := 0; x < w; x++ {
			row[x] = 0.5
		}
	}
	return NewImage(buf, "Testcam", "Model 1")
}

func TestNewBuildsV5RAWChain(t *testing.T) {
	p, err := New(bayerImage(32, 32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	mods := p.Enumerate()
	want := []string{"rawprepare", "temperature", "highlights", "demosaic", "colorin", "exposure", "finalscale", "colorout", "gamma"}
	if len(mods) != len(want) {
		t.Fatalf("got %d modules, want %d", len(mods), len(want))
	}
	for i, m := range mods {
		if m.Op != want[i] {
			t.Errorf("module %d: got %q, want %q", i, m.Op, want[i])
		}
	}
}

func TestNewBuildsJPEGChainWithRawStageIntact(t *testing.T) {
	for _, kind := range []string{"v3.0-jpeg", "v5.0-jpeg"} {
		p, err := New(bayerImage(32, 32), WithIOPOrder(kind))
		if err != nil {
			t.Fatalf("%s: New: %v", kind, err)
		}

		mods := p.Enumerate()
		if len(mods) == 0 {
			t.Fatalf("%s: no modules", kind)
		}
		if mods[0].Op != "rawprepare" {
			t.Fatalf("%s: first module = %q, want rawprepare", kind, mods[0].Op)
		}
		for _, want := range []string{"temperature", "highlights", "demosaic", "colorin"} {
			found := false
			for _, m := range mods {
				if m.Op == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("%s: module %q missing from a JPEG-order Pipeline", kind, want)
			}
		}

		out, err := p.Render(context.Background(), roi.Record{X: 0, Y: 0, Width: 32, Height: 32, Scale: 1})
		if err != nil {
			t.Fatalf("%s: Render: %v", kind, err)
		}
		if out.Desc.Channels != 4 {
			t.Fatalf("%s: got %d channels, want 4", kind, out.Desc.Channels)
		}
		p.Close()
	}
}

func TestUnknownIOPOrderFails(t *testing.T) {
	_, err := New(bayerImage(8, 8), WithIOPOrder("does-not-exist"))
	if err == nil {
		t.Fatal("want error for unknown iop order")
	}
}

func TestEnableDisablesModule(t *testing.T) {
	p, err := New(bayerImage(16, 16))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Enable("gamma", false); err != nil {
		t.Fatal(err)
	}
	on, err := p.Enabled("gamma")
	if err != nil {
		t.Fatal(err)
	}
	if on {
		t.Fatal("gamma should be disabled")
	}
}

func TestSetFloatInvalidatesCache(t *testing.T) {
	p, err := New(bayerImage(16, 16))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.SetFloat("exposure", "exposure", 1.0); err != nil {
		t.Fatal(err)
	}
	got, err := p.GetFloat("exposure", "exposure")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.0 {
		t.Fatalf("got %v, want 1.0", got)
	}
}

func TestRenderFullImageProducesRGBA(t *testing.T) {
	p, err := New(bayerImage(64, 64))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	want := roi.Record{X: 0, Y: 0, Width: 64, Height: 64, Scale: 1}
	out, err := p.Render(context.Background(), want)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Desc.Channels != 4 {
		t.Fatalf("got %d channels, want 4", out.Desc.Channels)
	}
	if out.Width != 64 || out.Height != 64 {
		t.Fatalf("got %dx%d, want 64x64", out.Width, out.Height)
	}
}

func TestRenderCancelled(t *testing.T) {
	p, err := New(bayerImage(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	p.Cancel()
	_, err = p.Render(context.Background(), roi.Record{X: 0, Y: 0, Width: 32, Height: 32, Scale: 1})
	if !errors.Is(err, ErrRenderCancelled) {
		t.Fatalf("got %v, want ErrRenderCancelled", err)
	}
}

func TestRenderRespectsContextCancellation(t *testing.T) {
	p, err := New(bayerImage(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Render(ctx, roi.Record{X: 0, Y: 0, Width: 32, Height: 32, Scale: 1})
	if err == nil {
		t.Fatal("want error from a pre-cancelled context")
	}
}
