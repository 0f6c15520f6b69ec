package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowRefills(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	l := New(2, time.Minute) // two at once, then one per 30s
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("keys must not share a bucket")
	}

	now = now.Add(31 * time.Second)
	if !l.Allow("a") {
		t.Error("one token should have refilled after 30s")
	}
	if l.Allow("a") {
		t.Error("only one token should have refilled")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Hour)
	if !l.Allow("k") || l.Allow("k") {
		t.Fatal("expected one allowed request")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should restore the bucket")
	}
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(5 * time.Minute)
	l.Allow("new")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["old"]; ok {
		t.Error("idle bucket should have been swept")
	}
	if _, ok := l.buckets["new"]; !ok {
		t.Error("active bucket missing")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.9:5555", "192.0.2.9"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/visitor/submit", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubmitLimiter_Check(t *testing.T) {
	s := NewSubmitLimiterWithConfig(2, time.Minute, 1, time.Minute)
	r := httptest.NewRequest("POST", "/api/visitor/submit", nil)

	if ok, _ := s.Check(r, "5551234567"); !ok {
		t.Fatal("first submission should pass")
	}
	if ok, reason := s.Check(r, "5551234567"); ok || reason == "" {
		t.Errorf("same phone again = %v %q, want blocked with reason", ok, reason)
	}
	// The IP bucket (2) is now spent.
	if ok, _ := s.Check(r, "5550000000"); ok {
		t.Error("third submission from one IP should be blocked")
	}
}
