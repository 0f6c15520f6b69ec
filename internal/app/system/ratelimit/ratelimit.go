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

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration // buckets unused this long are dropped
	swept   time.Time

	now func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// New allows burst requests per key, refilling evenly over per.
// New(5, 10*time.Minute) allows 5 at once, then one every 2 minutes.
func New(burst int, per time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(per / time.Duration(burst)),
		burst:   burst,
		idle:    2 * per,
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed and spends a token
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops idle buckets at most once per idle period. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.idle {
		return
	}
	l.swept = now
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SubmitLimiter guards the public visitor registration endpoint, per client
// IP and per phone number.
type SubmitLimiter struct {
	ip    *Limiter
	phone *Limiter
}

// NewSubmitLimiter allows 20 submissions per IP per minute and 5 per phone
// number per 10 minutes.
func NewSubmitLimiter() *SubmitLimiter {
	return NewSubmitLimiterWithConfig(20, time.Minute, 5, 10*time.Minute)
}

// NewSubmitLimiterWithConfig creates a submit limiter with custom limits.
func NewSubmitLimiterWithConfig(ipLimit int, ipPer time.Duration, phoneLimit int, phonePer time.Duration) *SubmitLimiter {
	return &SubmitLimiter{
		ip:    New(ipLimit, ipPer),
		phone: New(phoneLimit, phonePer),
	}
}

// Check reports whether a submission may proceed. When it may not, reason
// is a message fit for the visitor.
func (s *SubmitLimiter) Check(r *http.Request, phone string) (allowed bool, reason string) {
	if !s.ip.Allow(ClientIP(r)) {
		return false, "Too many registrations from this device. Please wait a minute and try again."
	}
	if phone != "" && !s.phone.Allow(phone) {
		return false, "Too many registrations for this phone number. Please wait a few minutes."
	}
	return true, ""
}
