// Package pixelpipe is a headless raw-photo image processing engine: a
// chain of image-operation (IOP) modules connected by a region-of-
// interest-aware pixel scheduler, modeled on darktable's pixelpipe.
//
// # Overview
//
// A Pipeline holds an ordered list of module instances (package iop
// descriptors bound to per-instance parameters from package paramdesc),
// plus the engine-wide IOP order table (package ioporder) that
// determines execution order. Rendering a region walks the chain
// tail-to-head solving each module's input ROI (package roi), then
// head-to-tail running each module's pixel kernel over an allocated
// buffer (package internal/buffer).
//
// # Quick Start
//
//	pipe, _ := pixelpipe.New(rawImage)
//	pipe.Enable("temperature", true)
//	pipe.SetFloat("exposure", "exposure", 0.5)
//	out, _ := pipe.Render(context.Background(), roi.Record{Width: w, Height: h, Scale: 1})
//
// pixelpipe produces no encoded files itself: package history persists
// a pipeline's module list and parameters as JSON or an XML sidecar, and
// package export bridges the final buffer to image/jpeg and image/png
// for callers that want an encoded file.
//
// # Architecture
//
//   - internal/buffer: aligned pixel buffers, pooling, ROI copy/zoom
//   - internal/colorspace, internal/paramdesc, internal/parallel,
//     internal/cache: the engine's typing, parameter, concurrency and
//     memoization primitives
//   - roi: region-of-interest record and forward/backward propagation
//   - ioporder: the IOP order tables and their serialization formats
//   - iop, iop/builtin: the module registry and the built-in operations
//   - demosaic: CFA reconstruction
//   - history: sidecar persistence
//   - export: bridge to stdlib image encoders
package pixelpipe
