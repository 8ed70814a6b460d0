package history

import (
	"strings"
	"testing"

	"github.com/rawforge/pixelpipe"
	"github.com/rawforge/pixelpipe/internal/buffer"
)

func testImage(t *testing.T, w, h int) *pixelpipe.Image {
	t.Helper()
	desc := buffer.Descriptor{
		Channels:         1,
		FilterMask:       0x94, // RGGB
		White:            [4]float32{1, 1, 1, 1},
		ProcessedMaximum: [4]float32{1, 1, 1, 1},
	}
	buf, err := buffer.New(w, h, desc)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		row := buf.Row(y)
		for x := 0; x < w; x++ {
			row[x] = 0.5
		}
	}
	return pixelpipe.NewImage(buf, "Testcam", "Model 1")
}

func testPipeline(t *testing.T) *pixelpipe.Pipeline {
	t.Helper()
	p, err := pixelpipe.New(testImage(t, 16, 16))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestFormatFloatAlwaysCarriesDecimalPoint(t *testing.T) {
	cases := map[float64]string{
		0:       "0.0",
		1:       "1.0",
		1.5:     "1.5",
		0.125:   "0.125",
		-2:      "-2.0",
		100:     "100.0",
	}
	for v, want := range cases {
		if got := formatFloat(v); got != want {
			t.Errorf("formatFloat(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestEmitProducesMaskedAndSettingsShape(t *testing.T) {
	p := testPipeline(t)
	doc, err := Emit(p, &Source{Filename: "DSCF4379.RAF", Camera: "Fujifilm X-T"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Version != "1.0" {
		t.Fatalf("got version %q, want 1.0", doc.Version)
	}
	if doc.Settings.IOPOrder != "v5.0-raw" {
		t.Fatalf("got iop_order %q, want v5.0-raw", doc.Settings.IOPOrder)
	}
	if len(doc.Masks) != 0 {
		t.Fatalf("want empty masks, got %v", doc.Masks)
	}
	mod, ok := doc.Modules["exposure"]
	if !ok {
		t.Fatal("want an exposure module entry")
	}
	if !mod.Enabled {
		t.Fatal("exposure should be enabled by default")
	}
	if mod.Params["exposure"] == "" {
		t.Fatal("want a formatted exposure.exposure value")
	}
}

func TestHistoryRoundTripIsByteExact(t *testing.T) {
	p := testPipeline(t)
	if err := p.SetFloat("exposure", "exposure", 1.5); err != nil {
		t.Fatal(err)
	}

	doc1, err := Emit(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	serialized1, err := Serialize(doc1)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.SetFloat("exposure", "exposure", 0.0); err != nil {
		t.Fatal(err)
	}

	loaded, err := Parse(serialized1)
	if err != nil {
		t.Fatal(err)
	}
	Load(p, loaded)
	p.InvalidateCache()

	got, err := p.GetFloat("exposure", "exposure")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.5 {
		t.Fatalf("got exposure %v after load, want 1.5 bit-equal", got)
	}

	doc2, err := Emit(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	serialized2, err := Serialize(doc2)
	if err != nil {
		t.Fatal(err)
	}
	if string(serialized1) != string(serialized2) {
		t.Fatalf("serialize(load(serialize(P))) != serialize(P):\n%s\n---\n%s", serialized1, serialized2)
	}
}

func TestLoadUnknownModuleIsSkippedNotFailed(t *testing.T) {
	p := testPipeline(t)
	raw := []byte(`{"version":"1.0","modules":{"nonexistent":{"enabled":true,"version":1,"params":{}}}}`)
	if err := LoadJSON(p, raw); err != nil {
		t.Fatalf("want ok for an unknown module, got %v", err)
	}
}

func TestLoadMissingVersionReturnsFormatError(t *testing.T) {
	p := testPipeline(t)
	err := LoadJSON(p, []byte(`{ "modules": {} }`))
	if err == nil {
		t.Fatal("want an error for a document with no version")
	}
	if pixelpipe.CodeOf(err) != pixelpipe.CodeFormat {
		t.Fatalf("got code %v, want CodeFormat", pixelpipe.CodeOf(err))
	}
}

func TestLoadUnsupportedMajorVersionRejects(t *testing.T) {
	p := testPipeline(t)
	err := LoadJSON(p, []byte(`{"version":"2.0","modules":{}}`))
	if pixelpipe.CodeOf(err) != pixelpipe.CodeFormat {
		t.Fatalf("got code %v, want CodeFormat for an unsupported major version", pixelpipe.CodeOf(err))
	}
}

func TestSidecarRoundTripAppliesHexParams(t *testing.T) {
	p := testPipeline(t)
	if err := p.SetFloat("exposure", "exposure", 1.0); err != nil {
		t.Fatal(err)
	}
	doc := EmitSidecar(p)
	data, err := SerializeSidecar(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pp:params") {
		t.Fatalf("want serialized sidecar to carry hex params, got: %s", data)
	}

	if err := p.SetFloat("exposure", "exposure", 0.0); err != nil {
		t.Fatal(err)
	}

	if err := LoadSidecarXML(p, data); err != nil {
		t.Fatal(err)
	}
	got, err := p.GetFloat("exposure", "exposure")
	if err != nil {
		t.Fatal(err)
	}
	if diff := got - 1.0; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("got exposure %v after sidecar load, want ~1.0", got)
	}
}
