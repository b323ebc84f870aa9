package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request should be limited")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining(a) = %d, want 0", got)
	}
	if got := l.Remaining("b"); got != 2 {
		t.Errorf("Remaining(b) = %d, want 2", got)
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request should be limited")
	}
	now = now.Add(61 * time.Second)
	if !l.Allow("k") {
		t.Error("request after window should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	l.Allow("k")
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("request after Reset should be allowed")
	}
}

func TestPair_TargetIsCaseInsensitive(t *testing.T) {
	p := NewPair(100, time.Minute, 1, time.Minute)
	defer p.Stop()

	if !p.Allow("1.1.1.1", "Ana@Example.com") {
		t.Fatal("first request should be allowed")
	}
	if p.Allow("2.2.2.2", " ana@example.com ") {
		t.Error("same account from another IP should be limited")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		xff, xri, remote string
		want             string
	}{
		{"203.0.113.5, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.5"},
		{"", "198.51.100.7", "10.0.0.2:1234", "198.51.100.7"},
		{"", "", "192.0.2.9:5555", "192.0.2.9"},
		{"", "", "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remote
		if tt.xff != "" {
			r.Header.Set("X-Forwarded-For", tt.xff)
		}
		if tt.xri != "" {
			r.Header.Set("X-Real-IP", tt.xri)
		}
		if got := ClientIP(r); got != tt.want {
			t.Errorf("ClientIP(xff=%q, xri=%q, remote=%q) = %q, want %q", tt.xff, tt.xri, tt.remote, got, tt.want)
		}
	}
}
