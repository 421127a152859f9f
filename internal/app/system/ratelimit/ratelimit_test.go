package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLimiter_BurstThenBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(3, time.Minute)
	defer l.Stop()

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d blocked inside burst", i+1)
		}
	}
	if l.Allow("a") {
		t.Error("fourth request allowed")
	}
	if !l.Allow("b") {
		t.Error("other key affected")
	}

	now = now.Add(21 * time.Second)
	if !l.Allow("a") {
		t.Error("token not refilled after one interval")
	}
}

func TestLimiter_Reset(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(1, time.Hour)
	defer l.Stop()

	l.Allow("x")
	if l.Allow("x") {
		t.Fatal("second request allowed")
	}
	l.Reset("x")
	if !l.Allow("x") {
		t.Error("reset did not restore the bucket")
	}
}

func TestLimiter_SweepDropsIdle(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(1, time.Minute)
	defer l.Stop()

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("old")
	now = now.Add(3 * time.Minute)
	l.Allow("new")
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["old"]; ok {
		t.Error("idle bucket survived sweep")
	}
	if _, ok := l.buckets["new"]; !ok {
		t.Error("fresh bucket swept")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded", "203.0.113.5, 10.0.0.1", "", "10.0.0.1:1234", "203.0.113.5"},
		{"real ip", "", "198.51.100.7", "10.0.0.1:1234", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerAccount(t *testing.T) {
	defer goleak.VerifyNone(t)

	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Hour)
	defer ll.Stop()

	r := httptest.NewRequest("POST", "/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Ana@FarmaRed.com "); !ok {
			t.Fatalf("attempt %d blocked", i+1)
		}
	}
	ok, msg := ll.Check(r, "ana@farmared.com")
	if ok || msg == "" {
		t.Fatalf("third attempt = %v %q", ok, msg)
	}

	ll.ResetLogin("ANA@farmared.com")
	if ok, _ := ll.Check(r, "ana@farmared.com"); !ok {
		t.Error("reset did not clear the account limit")
	}
}
