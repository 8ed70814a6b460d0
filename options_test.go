package pixelpipe

import "testing"

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.workers != 0 {
		t.Errorf("workers = %d, want 0 (let internal/parallel pick a default)", o.workers)
	}
	if o.memoryBudget != 1<<30 {
		t.Errorf("memoryBudget = %d, want 1<<30", o.memoryBudget)
	}
	if o.iopOrderKind != "v5.0-raw" {
		t.Errorf("iopOrderKind = %q, want v5.0-raw", o.iopOrderKind)
	}
}

func TestWithWorkers(t *testing.T) {
	o := defaultOptions()
	WithWorkers(8)(&o)
	if o.workers != 8 {
		t.Errorf("workers = %d, want 8", o.workers)
	}
}

func TestWithMemoryBudget(t *testing.T) {
	o := defaultOptions()
	WithMemoryBudget(64 << 20)(&o)
	if o.memoryBudget != 64<<20 {
		t.Errorf("memoryBudget = %d, want %d", o.memoryBudget, 64<<20)
	}
}

func TestWithIOPOrder(t *testing.T) {
	o := defaultOptions()
	WithIOPOrder("v3.0-raw")(&o)
	if o.iopOrderKind != "v3.0-raw" {
		t.Errorf("iopOrderKind = %q, want v3.0-raw", o.iopOrderKind)
	}
}

func TestMultipleOptionsApplyInOrder(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{WithWorkers(4), WithMemoryBudget(1 << 20), WithIOPOrder("legacy")} {
		opt(&o)
	}
	if o.workers != 4 || o.memoryBudget != 1<<20 || o.iopOrderKind != "legacy" {
		t.Errorf("got %+v, want workers=4 memoryBudget=%d iopOrderKind=legacy", o, 1<<20)
	}
}

func TestNewRejectsUnknownIOPOrder(t *testing.T) {
	_, err := New(bayerImage(16, 16), WithIOPOrder("nonexistent"))
	if CodeOf(err) != CodeInvalidArg {
		t.Fatalf("got code %v, want CodeInvalidArg for an unknown order table", CodeOf(err))
	}
}
