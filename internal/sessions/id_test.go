package sessions

import (
	"strconv"
	"strings"
	"testing"
)

func TestNewIDFormat(t *testing.T) {
	id := NewID("user-1")

	if !strings.HasPrefix(id, "user-1-") {
		t.Fatalf("expected user prefix, got %q", id)
	}
	stamp := strings.TrimPrefix(id, "user-1-")
	if _, err := strconv.ParseInt(stamp, 10, 64); err != nil {
		t.Errorf("expected numeric suffix, got %q", stamp)
	}
}

func TestNewIDUniqueInBurst(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID("user-1")
		if seen[id] {
			t.Fatalf("duplicate ID minted: %q", id)
		}
		seen[id] = true
	}
}

func TestNewIDStampsIncrease(t *testing.T) {
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := NewID("u")
		stamp, err := strconv.ParseInt(strings.TrimPrefix(id, "u-"), 10, 64)
		if err != nil {
			t.Fatalf("bad stamp in %q: %v", id, err)
		}
		if stamp <= prev {
			t.Fatalf("stamp went backwards: %d after %d", stamp, prev)
		}
		prev = stamp
	}
}
