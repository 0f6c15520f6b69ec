package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogServerError_JSONForAPI(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/visitor/dashboard", nil)
	el.LogServerError(rec, req, "count visits failed", stderrors.New("boom"), "Unable to load counts.", "")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body jsonError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "error" || body.Message != "Unable to load counts." {
		t.Errorf("body = %+v", body)
	}

	entries := logs.FilterMessage("count visits failed").All()
	if len(entries) != 1 || entries[0].Level != zap.ErrorLevel {
		t.Fatalf("expected one error log, got %v", logs.All())
	}
	if entries[0].ContextMap()["path"] != "/api/visitor/dashboard" {
		t.Errorf("path field missing: %v", entries[0].ContextMap())
	}
}

func TestLogBadRequest_HTMXRetargets(t *testing.T) {
	el := NewErrorLogger(zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/visits/dashboard/toggle", nil)
	req.Header.Set("HX-Request", "true")
	el.LogBadRequest(rec, req, "bad status", nil, "Unknown status.", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec.Header().Get("HX-Retarget") != "#flash" {
		t.Errorf("HX-Retarget = %q", rec.Header().Get("HX-Retarget"))
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		path, accept string
		want         bool
	}{
		{"/api/visitor/submit", "", true},
		{"/visits", "", false},
		{"/visits", "application/json", true},
		{"/visits", "text/html", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.accept != "" {
			r.Header.Set("Accept", tt.accept)
		}
		if got := WantsJSON(r); got != tt.want {
			t.Errorf("WantsJSON(%s, %q) = %v, want %v", tt.path, tt.accept, got, tt.want)
		}
	}
}
