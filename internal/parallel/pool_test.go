package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelRowsCoversEveryRowExactlyOnce(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	const rows = 37
	var hits [rows]int32
	p.ParallelRows(rows, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			atomic.AddInt32(&hits[y], 1)
		}
	})
	for y, h := range hits {
		if h != 1 {
			t.Fatalf("row %d hit %d times, want 1", y, h)
		}
	}
}

func TestRunAllWaitsForCompletion(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var done atomic.Int32
	work := make([]func(), 10)
	for i := range work {
		work[i] = func() { done.Add(1) }
	}
	p.RunAll(work)
	if got := done.Load(); got != 10 {
		t.Fatalf("want 10 completions, got %d", got)
	}
}

func TestParallelRowsZero(t *testing.T) {
	p := NewPool(2)
	defer p.Close()
	p.ParallelRows(0, func(int, int) { t.Fatal("should not be called") })
}
