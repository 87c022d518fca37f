package ids

import (
	"testing"
	"time"
)

var created = time.Date(2024, 3, 2, 9, 12, 0, 0, time.UTC)

func TestNew_Alphabet(t *testing.T) {
	id := New(KindItem, "Buy milk", created, nil)
	if len(id) != Length {
		t.Fatalf("expected ID length %d, got %d: %q", Length, len(id), id)
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')) {
			t.Errorf("ID contains invalid character %q: %q", c, id)
		}
	}
}

func TestNew_Deterministic(t *testing.T) {
	if a, b := New(KindItem, "Buy milk", created, nil), New(KindItem, "Buy milk", created, nil); a != b {
		t.Errorf("same inputs should produce same ID: got %q and %q", a, b)
	}
	if New(KindItem, "Buy milk", created, nil) == New(KindItem, "Buy milk", created.Add(time.Nanosecond), nil) {
		t.Error("different timestamps should produce different IDs")
	}
}

func TestNew_KindsDiffer(t *testing.T) {
	seen := map[string]Kind{}
	for _, kind := range []Kind{KindItem, KindProject, KindTag} {
		id := New(kind, "Errands", created, nil)
		if other, ok := seen[id]; ok {
			t.Fatalf("kinds %q and %q share ID %q", other, kind, id)
		}
		seen[id] = kind
	}
}

func TestNew_SkipsTakenIDs(t *testing.T) {
	first := New(KindTag, "Waiting", created, nil)
	taken := map[string]bool{first: true}

	second := New(KindTag, "Waiting", created, func(id string) bool { return taken[id] })
	if second == first {
		t.Fatalf("expected a fresh ID, got %q again", second)
	}
	if want := New(KindTag, "Waiting", created.Add(time.Nanosecond), nil); second != want {
		t.Fatalf("second = %q, want %q", second, want)
	}
}
