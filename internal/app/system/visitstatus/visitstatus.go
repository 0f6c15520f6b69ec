// Package visitstatus defines the fixed set of visit status labels.
package visitstatus

import "strings"

const (
	Pending   = "pending"
	Approved  = "approved"
	Cancelled = "cancelled"
)

// all is the display order used by dashboards and pickers.
var all = []string{Pending, Approved, Cancelled}

var labels = map[string]string{
	Pending:   "Pending",
	Approved:  "Approved",
	Cancelled: "Cancelled",
}

// All returns the status labels in display order. The returned slice is a copy.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is one of the fixed labels.
func Valid(s string) bool {
	_, ok := labels[s]
	return ok
}

// Normalize trims and lowercases s. It does not validate.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Label returns the human-facing name for a status, or s itself if unknown.
func Label(s string) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return s
}

// Counts maps each status label to a number of visits.
type Counts map[string]int64

// NewCounts returns a Counts with every label present and zero.
func NewCounts() Counts {
	c := make(Counts, len(all))
	for _, s := range all {
		c[s] = 0
	}
	return c
}

// Complete returns a copy of c holding exactly the fixed labels. Missing
// labels become zero; unknown keys are dropped.
func (c Counts) Complete() Counts {
	out := NewCounts()
	for _, s := range all {
		out[s] = c[s]
	}
	return out
}
