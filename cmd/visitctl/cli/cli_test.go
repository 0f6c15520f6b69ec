package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
)

func TestDemoVisits(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	day := time.Date(2024, 3, 15, 12, 0, 0, 0, loc)

	got := demoVisits(9, day)
	if len(got) != 9 {
		t.Fatalf("len = %d, want 9", len(got))
	}

	perStatus := map[string]int{}
	for _, v := range got {
		perStatus[v.Status]++

		if y, m, d := v.VisitingDate.Date(); y != 2024 || m != 3 || d != 15 {
			t.Errorf("%s visiting date %v is not on 2024-03-15", v.Name, v.VisitingDate)
		}
		if len(v.Phone) != 10 {
			t.Errorf("%s phone %q is not 10 digits", v.Name, v.Phone)
		}
		if v.Status == visitstatus.Cancelled && v.CancellationReason == "" {
			t.Errorf("%s is cancelled without a reason", v.Name)
		}
		if v.VisitType != models.VisitTypePreRegistered && v.VisitType != models.VisitTypeWalkIn {
			t.Errorf("%s has visit type %q", v.Name, v.VisitType)
		}
	}
	for _, s := range visitstatus.All() {
		if perStatus[s] != 3 {
			t.Errorf("%s: %d visits, want 3", s, perStatus[s])
		}
	}
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("2024-03-15", time.UTC)
	if err != nil {
		t.Fatalf("parseDay: %v", err)
	}
	if d.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("day = %v", d)
	}

	if _, err := parseDay("15/03/2024", time.UTC); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestPrintCounts(t *testing.T) {
	counts := visitstatus.Counts{visitstatus.Pending: 4, visitstatus.Approved: 10}

	var buf bytes.Buffer
	if err := printCounts(&buf, "2024-03-15", counts, false); err != nil {
		t.Fatalf("printCounts: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2024-03-15", "pending", "4", "approved", "10", "cancelled"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := printCounts(&buf, "2024-03-15", counts, true); err != nil {
		t.Fatalf("printCounts json: %v", err)
	}
	var decoded struct {
		Date   string           `json:"date"`
		Counts map[string]int64 `json:"counts"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if decoded.Counts[visitstatus.Cancelled] != 0 || len(decoded.Counts) != 3 {
		t.Errorf("counts = %v, want three labels with cancelled 0", decoded.Counts)
	}
}
