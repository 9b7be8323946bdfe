package logger

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		l, err := New(level, false)
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		if l == nil {
			t.Fatalf("New(%q) returned a nil logger", level)
		}
	}

	if _, err := New("loud", true); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}
