package pixelpipe

// Option configures a Pipeline during construction.
//
// Example:
//
//	pipe, _ := pixelpipe.New(img, pixelpipe.WithWorkers(8))
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	workers      int
	memoryBudget int64
	iopOrderKind string
}

func defaultOptions() pipelineOptions {
	return pipelineOptions{
		workers:      0, // 0 means "let internal/parallel pick a default"
		memoryBudget: 1 << 30,
		iopOrderKind: "v5.0-raw",
	}
}

// WithWorkers sets the worker pool size the scheduler's parallel row
// dispatch uses. 0 (the default) lets the pool size itself off
// runtime.GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *pipelineOptions) {
		o.workers = n
	}
}

// WithMemoryBudget sets the host memory budget (bytes) the tiling
// dispatcher compares a module's declared footprint against before
// deciding to tile (spec §4.3).
func WithMemoryBudget(bytes int64) Option {
	return func(o *pipelineOptions) {
		o.memoryBudget = bytes
	}
}

// WithIOPOrder selects the built-in IOP order table (package ioporder's
// Kind.String() form, e.g. "v5.0-raw") a new Pipeline starts with.
func WithIOPOrder(kind string) Option {
	return func(o *pipelineOptions) {
		o.iopOrderKind = kind
	}
}
