// Command pixelpipedemo demonstrates the pixelpipe image-processing engine:
// building a pipeline over a synthetic raw source, adjusting its exposure,
// writing its history to a sidecar file, rendering a region, and
// exporting it as PNG.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/rawforge/pixelpipe"
	"github.com/rawforge/pixelpipe/export"
	"github.com/rawforge/pixelpipe/history"
	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/roi"
)

func main() {
	var (
		width    = flag.Int("width", 640, "synthetic sensor width")
		height   = flag.Int("height", 480, "synthetic sensor height")
		exposure = flag.Float64("exposure", 0.5, "exposure.exposure stops")
		scale    = flag.Float64("scale", 1.0, "render scale")
		output   = flag.String("output", "demo.png", "output PNG path")
		sidecar  = flag.String("sidecar", "demo.pp.xmp", "history sidecar path")
	)
	flag.Parse()

	img := pixelpipe.NewImage(syntheticBayer(*width, *height), "Demo", "SyntheticSensor")

	pipe, err := pixelpipe.New(img)
	if err != nil {
		log.Fatalf("New: %v", err)
	}
	defer pipe.Close()

	if err := pipe.SetFloat("exposure", "exposure", *exposure); err != nil {
		log.Fatalf("SetFloat: %v", err)
	}

	if err := history.SaveSidecar(pipe, *sidecar); err != nil {
		log.Fatalf("SaveSidecar: %v", err)
	}
	log.Printf("history written to %s", *sidecar)

	want := roi.Record{
		X: 0, Y: 0,
		Width:  int(float64(*width) * *scale),
		Height: int(float64(*height) * *scale),
		Scale:  *scale,
	}
	out, err := pipe.Render(context.Background(), want)
	if err != nil {
		log.Fatalf("Render: %v", err)
	}

	if err := export.SavePNG(*output, out); err != nil {
		log.Fatalf("SavePNG: %v", err)
	}
	log.Printf("rendered %dx%d to %s", out.Width, out.Height, *output)
}

// syntheticBayer builds a flat-field RGGB mosaic buffer standing in for
// a decoded raw file, since this demo has no raw decoder of its own
// (spec C10: "produced by the raw decoder (external). The engine only
// reads it.").
func syntheticBayer(w, h int) *buffer.Buf {
	desc := buffer.Descriptor{
		Channels:         1,
		FilterMask:       0x94, // RGGB
		White:            [4]float32{1, 1, 1, 1},
		ProcessedMaximum: [4]float32{1, 1, 1, 1},
	}
	buf, err := buffer.New(w, h, desc)
	if err != nil {
		log.Fatalf("buffer.New: %v", err)
	}
	for y := 0; y < h; y++ {
		row := buf.Row(y)
		for x := range row {
			row[x] = 0.4
		}
	}
	return buf
}
