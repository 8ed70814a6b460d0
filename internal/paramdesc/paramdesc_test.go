package paramdesc

import "testing"

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register("exposure", []Field{
		{Name: "exposure", Offset: 0, Type: Float32, Size: 4, SoftMin: -3, SoftMax: 3},
		{Name: "black", Offset: 4, Type: Float32, Size: 4},
		{Name: "deflicker", Offset: 8, Type: Bool, Size: 4},
	})
	return r
}

func TestNewRecordSeedsDeclaredDefaults(t *testing.T) {
	r := NewRegistry()
	r.Register("wb", []Field{
		{Name: "red", Offset: 0, Type: Float32, Default: 1.5},
		{Name: "enabled", Offset: 4, Type: Bool, Default: 1},
		{Name: "mode", Offset: 8, Type: Int32, Default: 2},
	})
	rec, err := r.NewRecord("wb")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := r.GetFloat(rec, "wb", "red"); v != 1.5 {
		t.Fatalf("red: got %v, want 1.5", v)
	}
	if v, _ := r.GetBool(rec, "wb", "enabled"); !v {
		t.Fatal("enabled: want true")
	}
	if v, _ := r.GetInt(rec, "wb", "mode"); v != 2 {
		t.Fatalf("mode: got %v, want 2", v)
	}
}

func TestRecordSizeIsMaxOffsetPlusSize(t *testing.T) {
	r := newTestRegistry()
	size, err := r.RecordSize("exposure")
	if err != nil {
		t.Fatal(err)
	}
	if size != 12 {
		t.Fatalf("want 12, got %d", size)
	}
}

func TestRegisterPanicsOnOverlap(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overlapping fields")
		}
	}()
	r := NewRegistry()
	r.Register("bad", []Field{
		{Name: "a", Offset: 0, Type: Float32, Size: 4},
		{Name: "b", Offset: 2, Type: Float32, Size: 4},
	})
}

func TestRegisterPanicsOnDuplicateOp(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate op registration")
		}
	}()
	r := newTestRegistry()
	r.Register("exposure", []Field{{Name: "x", Offset: 0, Type: Float32, Size: 4}})
}

func TestFloatRoundTrip(t *testing.T) {
	r := newTestRegistry()
	rec, _ := r.NewRecord("exposure")
	if _, err := r.SetFloat(rec, "exposure", "exposure", 1.5); err != nil {
		t.Fatal(err)
	}
	got, err := r.GetFloat(rec, "exposure", "exposure")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.5 {
		t.Fatalf("want 1.5, got %v", got)
	}
}

func TestSoftBoundsAcceptedButFlagged(t *testing.T) {
	r := newTestRegistry()
	rec, _ := r.NewRecord("exposure")
	out, err := r.SetFloat(rec, "exposure", "exposure", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !out {
		t.Fatal("expected soft-bound violation flag")
	}
	got, _ := r.GetFloat(rec, "exposure", "exposure")
	if got != 10 {
		t.Fatalf("soft bound violation must still write the value, got %v", got)
	}
}

func TestTypeMismatchReported(t *testing.T) {
	r := newTestRegistry()
	rec, _ := r.NewRecord("exposure")
	if _, err := r.SetInt(rec, "exposure", "exposure", 1); err == nil {
		t.Fatal("expected parameter-type error writing int into float field")
	}
}

func TestUnknownOpAndField(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Lookup("nonexistent", "x"); err == nil {
		t.Fatal("expected unknown-op error")
	}
	if _, err := r.Lookup("exposure", "nonexistent"); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestOutOfExtent(t *testing.T) {
	r := newTestRegistry()
	short := make([]byte, 2)
	if _, err := r.GetFloat(short, "exposure", "exposure"); err == nil {
		t.Fatal("expected out-of-extent error")
	}
}

func TestBoolRoundTrip(t *testing.T) {
	r := newTestRegistry()
	rec, _ := r.NewRecord("exposure")
	if err := r.SetBool(rec, "exposure", "deflicker", true); err != nil {
		t.Fatal(err)
	}
	got, err := r.GetBool(rec, "exposure", "deflicker")
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Fatal("want true")
	}
}

func TestIndexAndCount(t *testing.T) {
	r := newTestRegistry()
	if r.Count("exposure") != 3 {
		t.Fatalf("want 3 fields, got %d", r.Count("exposure"))
	}
	if _, err := r.Index("exposure", 99); err == nil {
		t.Fatal("expected out-of-extent error for bad index")
	}
}
