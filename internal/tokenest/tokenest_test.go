package tokenest

import "testing"

func TestCountEmptyString(t *testing.T) {
	e, err := New("cl100k_base")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := e.Count(""); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestCountNonEmptyIsPositive(t *testing.T) {
	e, err := New("cl100k_base")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := e.Count("the quick brown fox jumps over the lazy dog"); got <= 0 {
		t.Fatalf("expected positive token count, got %d", got)
	}
}
