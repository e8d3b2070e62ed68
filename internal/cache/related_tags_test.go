package cache

import "testing"

func TestKey(t *testing.T) {
	got := Key("4f5c", 0.5, "related")
	want := "related:4f5c:0.50:related"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	got = Key("4f5c", 0.5, "")
	want = "related:4f5c:0.50:any"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
