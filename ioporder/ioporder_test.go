package ioporder

import "testing"

func TestBuiltinListsStartWithRawprepareEndWithGamma(t *testing.T) {
	for k := Legacy; k <= V5JPEG; k++ {
		list := ListFor(k)
		if len(list) == 0 {
			t.Fatalf("%v: empty list", k)
		}
		first := list[0].Op
		last := list[len(list)-1].Op
		if first != "rawprepare" {
			t.Errorf("%v: first op %q, want rawprepare", k, first)
		}
		if last != "gamma" {
			t.Errorf("%v: last op %q, want gamma", k, last)
		}
	}
}

func TestJPEGTablesTieRawStageToOneRank(t *testing.T) {
	for _, k := range []Kind{V3JPEG, V5JPEG} {
		list := ListFor(k)
		pos := make(map[string]int, len(list))
		for i, e := range list {
			pos[e.Op] = i
		}
		for _, op := range []string{"rawprepare", "temperature", "highlights", "demosaic"} {
			if _, ok := pos[op]; !ok {
				t.Fatalf("%v: %q missing from the JPEG table, the raw stage must still run", k, op)
			}
		}
		rank := list[pos["rawprepare"]].IOPOrder
		for _, op := range []string{"temperature", "highlights", "demosaic"} {
			if list[pos[op]].IOPOrder != rank {
				t.Fatalf("%v: %q rank = %d, want %d (tied with rawprepare)", k, op, list[pos[op]].IOPOrder, rank)
			}
		}
		if list[pos["colorin"]].IOPOrder <= rank {
			t.Fatalf("%v: colorin must rank after the collapsed raw stage", k)
		}
	}
}

func TestKindOfBuiltinRoundTrips(t *testing.T) {
	for k := Legacy; k <= V5JPEG; k++ {
		list := ListFor(k)
		if got := KindOf(list); got != k {
			t.Errorf("KindOf(ListFor(%v)) = %v", k, got)
		}
	}
}

func TestSortIsStableAndDeterministic(t *testing.T) {
	list := List{
		{Op: "b", Instance: 1, IOPOrder: 100},
		{Op: "a", Instance: 0, IOPOrder: 100},
		{Op: "c", Instance: 0, IOPOrder: 50},
	}
	got := Sort(list)
	want := []string{"c", "a", "b"}
	for i, w := range want {
		if got[i].Op != w {
			t.Fatalf("position %d: got %q want %q", i, got[i].Op, w)
		}
	}
	// Re-sorting an already sorted list must be idempotent.
	got2 := Sort(got)
	for i := range got {
		if got[i] != got2[i] {
			t.Fatalf("sort not idempotent at %d", i)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	for k := Legacy; k <= V5JPEG; k++ {
		list := ListFor(k)
		text := SerializeText(list)
		back, err := DeserializeText(text)
		if err != nil {
			t.Fatalf("%v: %v", k, err)
		}
		if SerializeText(back) != text {
			t.Fatalf("%v: round trip mismatch: %q vs %q", k, text, SerializeText(back))
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	list := ListFor(V3RAW)
	data := SerializeBinary(list)
	back, err := DeserializeBinary(data)
	if err != nil {
		t.Fatal(err)
	}
	if !sameOpSequence(list, back) {
		t.Fatalf("round trip changed op sequence: %+v vs %+v", list, back)
	}
}

func TestBinaryRejectsCorruptLength(t *testing.T) {
	data := SerializeBinary(ListFor(V3RAW))
	// Corrupt the first record's length field to something absurd.
	data[0] = 0xff
	data[1] = 0xff
	data[2] = 0xff
	data[3] = 0x7f
	if _, err := DeserializeBinary(data); err == nil {
		t.Fatal("expected error on corrupted length, got nil")
	}
}

func TestBinaryRejectsOversizedInstance(t *testing.T) {
	list := List{{Op: "rawprepare", Instance: maxInstance + 1}}
	data := SerializeBinary(list)
	if _, err := DeserializeBinary(data); err == nil {
		t.Fatal("expected error on out-of-band instance")
	}
}

func TestValidateEnforcesRules(t *testing.T) {
	bad := List{
		{Op: "colorout", IOPOrder: 100},
		{Op: "colorin", IOPOrder: 200},
	}
	if err := Validate(bad); err == nil {
		t.Fatal("expected rule violation (colorin must precede colorout)")
	}

	good := ListFor(V3RAW)
	if err := Validate(good); err != nil {
		t.Fatalf("built-in list should satisfy rules: %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	list := ListFor(V5RAW)
	data, err := JSONWrite(list, "1.0")
	if err != nil {
		t.Fatal(err)
	}
	back, version, err := JSONRead(data)
	if err != nil {
		t.Fatal(err)
	}
	if version != "1.0" {
		t.Fatalf("version = %q", version)
	}
	if !sameOpSequence(list, back) {
		t.Fatalf("round trip changed op sequence")
	}
}
