package cache

import "testing"

func TestGetOrCreateComputesOnce(t *testing.T) {
	c := New[string, int](10)
	calls := 0
	create := func() int {
		calls++
		return 42
	}
	if v := c.GetOrCreate("v3_raw", create); v != 42 {
		t.Fatalf("want 42, got %d", v)
	}
	if v := c.GetOrCreate("v3_raw", create); v != 42 {
		t.Fatalf("want 42, got %d", v)
	}
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
}

func TestEvictionRespectsSoftLimit(t *testing.T) {
	c := New[int, int](4)
	for i := 0; i < 20; i++ {
		c.Set(i, i)
	}
	if c.Len() > 4 {
		t.Fatalf("want len <= 4 after eviction, got %d", c.Len())
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)
	if !c.Delete("a") {
		t.Fatal("expected delete to report found")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
	c.Set("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("want empty cache after Clear, got len %d", c.Len())
	}
}
