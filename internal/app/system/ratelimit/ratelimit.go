// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New allows burst requests per key, refilled evenly over per. Buckets
// unused for twice that long are dropped by a janitor goroutine; call Stop
// to end it.
func New(burst int, per time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(per / time.Duration(max(burst, 1))),
		burst:   burst,
		idle:    2 * per,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Reset forgets key, giving it a full bucket again.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Stop ends the janitor. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor() {
	t := time.NewTicker(l.idle)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idle)
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

// ClientIP extracts the client IP from an HTTP request, preferring the
// first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts per client IP and per login ID,
// before they are forwarded to the backend.
type LoginLimiter struct {
	ip    *Limiter
	login *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per login ID
// per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipPer time.Duration, loginLimit int, loginPer time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:    New(ipLimit, ipPer),
		login: New(loginLimit, loginPer),
	}
}

// Check reports whether an attempt may go ahead, and if not, the message
// to show.
func (ll *LoginLimiter) Check(r *http.Request, loginID string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "Demasiados intentos de ingreso. Espere un minuto e intente de nuevo."
	}
	if key := loginKey(loginID); key != "" && !ll.login.Allow(key) {
		return false, "Demasiados intentos para esta cuenta. Espere unos minutos."
	}
	return true, ""
}

// ResetLogin clears the per-account limit after a successful sign-in.
func (ll *LoginLimiter) ResetLogin(loginID string) {
	if key := loginKey(loginID); key != "" {
		ll.login.Reset(key)
	}
}

// Stop ends both janitors.
func (ll *LoginLimiter) Stop() {
	ll.ip.Stop()
	ll.login.Stop()
}

func loginKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
