package visitstatus

import "testing"

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"pending", true},
		{"approved", true},
		{"cancelled", true},
		{"Pending", false},
		{"canceled", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Valid(tt.in); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Approved "); got != "approved" {
		t.Errorf("Normalize: got %q, want %q", got, "approved")
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0] = "mutated"
	if All()[0] != Pending {
		t.Error("All() exposed its backing slice")
	}
}

func TestCounts_Complete(t *testing.T) {
	in := Counts{Pending: 3, "unknown": 9}
	got := in.Complete()

	if len(got) != 3 {
		t.Fatalf("expected 3 labels, got %d (%v)", len(got), got)
	}
	if got[Pending] != 3 || got[Approved] != 0 || got[Cancelled] != 0 {
		t.Errorf("unexpected counts: %v", got)
	}
	if _, ok := got["unknown"]; ok {
		t.Error("unknown label should be dropped")
	}
}

func TestLabel(t *testing.T) {
	if Label(Cancelled) != "Cancelled" {
		t.Errorf("Label(cancelled) = %q", Label(Cancelled))
	}
	if Label("other") != "other" {
		t.Errorf("Label(other) = %q", Label("other"))
	}
}
