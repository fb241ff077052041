package common

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "a", "b"); got != "a" {
		t.Errorf("Coalesce = %q, want a", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("Coalesce of zeros = %d, want 0", got)
	}
	if got := Coalesce[string](); got != "" {
		t.Errorf("Coalesce() = %q, want empty", got)
	}
}
