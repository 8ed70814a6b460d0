package pixelpipe

import (
	"context"
	"math"
	"testing"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/roi"
)

func TestFetchBaseExactCropAtScaleOne(t *testing.T) {
	img := bayerImage(16, 16)
	p, err := New(img, WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	buf, err := p.fetchBase(roi.Record{X: 4, Y: 4, Width: 8, Height: 8, Scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	if buf.Width != 8 || buf.Height != 8 {
		t.Fatalf("got %dx%d, want 8x8", buf.Width, buf.Height)
	}
	if buf.At(0, 0)[0] != 0.5 {
		t.Fatalf("got %v, want 0.5", buf.At(0, 0)[0])
	}
}

func TestSkipRuleReusesCachedOutput(t *testing.T) {
	p, err := New(bayerImage(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	want := roi.Record{X: 0, Y: 0, Width: 32, Height: 32, Scale: 1}
	if _, err := p.Render(context.Background(), want); err != nil {
		t.Fatal(err)
	}

	m, err := p.find("gamma")
	if err != nil {
		t.Fatal(err)
	}
	cached := m.cache.output

	if _, err := p.Render(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	if m.cache.output != cached {
		t.Fatal("unchanged render should have reused gamma's cached output buffer")
	}
}

func TestParamChangeInvalidatesSkipCache(t *testing.T) {
	p, err := New(bayerImage(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	want := roi.Record{X: 0, Y: 0, Width: 32, Height: 32, Scale: 1}
	if _, err := p.Render(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	m, err := p.find("exposure")
	if err != nil {
		t.Fatal(err)
	}
	before := m.cache.output

	if err := p.SetFloat("exposure", "exposure", 2.0); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Render(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	if m.cache.output == before {
		t.Fatal("changed parameter should invalidate the cached output")
	}
}

func TestRunTiledMatchesWholeROIResult(t *testing.T) {
	img := bayerImage(64, 64)
	p, err := New(img, WithWorkers(2), WithMemoryBudget(1))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	m, err := p.find("exposure")
	if err != nil {
		t.Fatal(err)
	}
	roiIn := roi.Record{X: 0, Y: 0, Width: 64, Height: 64, Scale: 1}
	input, err := buffer.New(64, 64, buffer.Descriptor{Channels: 4, White: [4]float32{1, 1, 1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range input.Data {
		input.Data[i] = 0.25
	}
	output, err := buffer.New(64, 64, input.Desc)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.runTiled(m, input, output, roiIn, roiIn); err != nil {
		t.Fatal(err)
	}
	whole, err := buffer.New(64, 64, input.Desc)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.desc.Process(m.piece, input, whole, roiIn, roiIn); err != nil {
		t.Fatal(err)
	}
	for i, v := range output.Data {
		if v == 0 {
			t.Fatalf("sample %d is zero after tiled exposure", i)
		}
		if v != whole.Data[i] {
			t.Fatalf("sample %d = %v after tiled exposure, want %v from a whole-ROI run", i, v, whole.Data[i])
		}
	}
}

func TestAdaptColorspaceConvertsRGBToLab(t *testing.T) {
	buf, err := buffer.New(1, 1, buffer.Descriptor{Channels: 4, Colorspace: colorspace.RGB, White: [4]float32{1, 1, 1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	buf.Row(0)[0], buf.Row(0)[1], buf.Row(0)[2], buf.Row(0)[3] = 0.5, 0.4, 0.3, 1

	out, err := adaptColorspace(buf, colorspace.Lab)
	if err != nil {
		t.Fatal(err)
	}
	if out.Desc.Colorspace != colorspace.Lab {
		t.Fatalf("got colorspace %v, want Lab", out.Desc.Colorspace)
	}
	wantL, wantA, wantB := colorspace.RGBToLab(0.5, 0.4, 0.3)
	row := out.Row(0)
	if math.Abs(float64(row[0]-wantL)) > 1e-6 || math.Abs(float64(row[1]-wantA)) > 1e-6 || math.Abs(float64(row[2]-wantB)) > 1e-6 {
		t.Fatalf("got (%v,%v,%v), want (%v,%v,%v)", row[0], row[1], row[2], wantL, wantA, wantB)
	}
}

func TestAdaptColorspaceNoopWhenAlreadyMatching(t *testing.T) {
	buf, err := buffer.New(1, 1, buffer.Descriptor{Channels: 4, Colorspace: colorspace.RGB})
	if err != nil {
		t.Fatal(err)
	}
	out, err := adaptColorspace(buf, colorspace.RGB)
	if err != nil {
		t.Fatal(err)
	}
	if out != buf {
		t.Fatal("want the same buffer returned unchanged when colorspaces already match")
	}
}

func TestAdaptColorspaceLeavesMosaicBuffersAlone(t *testing.T) {
	buf, err := buffer.New(2, 2, buffer.Descriptor{Channels: 1, Colorspace: colorspace.Raw, FilterMask: 0x94})
	if err != nil {
		t.Fatal(err)
	}
	out, err := adaptColorspace(buf, colorspace.RGB)
	if err != nil {
		t.Fatal(err)
	}
	if out != buf {
		t.Fatal("want a 1-channel mosaic buffer returned unchanged")
	}
}

func TestRenderTagsPostDemosaicOutputRGB(t *testing.T) {
	p, err := New(bayerImage(16, 16))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	out, err := p.Render(context.Background(), roi.Record{X: 0, Y: 0, Width: 16, Height: 16, Scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	if out.Desc.Colorspace != colorspace.RGB {
		t.Fatalf("got colorspace %v after the full chain, want RGB", out.Desc.Colorspace)
	}
}

func TestNeedsTilingRespectsBudget(t *testing.T) {
	fakeDesc := buffer.Descriptor{Channels: 4}
	m := &ModuleInstance{desc: &iop.Descriptor{Flags: iop.AllowTiling}}
	roiRec := roi.Record{Width: 1000, Height: 1000, Scale: 1}
	if !needsTiling(m, fakeDesc, fakeDesc, roiRec, roiRec, 1024) {
		t.Fatal("want tiling required for a tiny budget")
	}
	if needsTiling(m, fakeDesc, fakeDesc, roiRec, roiRec, 1<<40) {
		t.Fatal("want no tiling required for a huge budget")
	}
}
