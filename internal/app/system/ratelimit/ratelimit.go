// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration and
// starts its cleanup loop. Call Stop when done.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests key has left in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if r := l.limit - w.count; r > 0 {
		return r
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the caller's address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
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

// Pair limits by caller address and by target account together, so neither
// many addresses against one account nor one address against many accounts
// gets through.
type Pair struct {
	ip     *Limiter
	target *Limiter
}

// NewPair builds a Pair from the two limits.
func NewPair(ipLimit int, ipWindow time.Duration, targetLimit int, targetWindow time.Duration) *Pair {
	return &Pair{
		ip:     New(ipLimit, ipWindow),
		target: New(targetLimit, targetWindow),
	}
}

// NewLoginPair is 10 attempts per IP per minute and 5 per account per 5 minutes.
func NewLoginPair() *Pair {
	return NewPair(10, time.Minute, 5, 5*time.Minute)
}

// NewRecoveryPair is 5 code sends per IP per 10 minutes and 3 per account
// per 10 minutes.
func NewRecoveryPair() *Pair {
	return NewPair(5, 10*time.Minute, 3, 10*time.Minute)
}

// NewFormOpenLimiter is 30 anonymous form opens per IP per 10 minutes.
func NewFormOpenLimiter() *Limiter {
	return New(30, 10*time.Minute)
}

// Allow reports whether a request from ip against target may proceed.
// Both counters are charged.
func (p *Pair) Allow(ip, target string) bool {
	ipOK := p.ip.Allow(ip)
	targetOK := p.target.Allow(strings.ToLower(strings.TrimSpace(target)))
	return ipOK && targetOK
}

// Reset clears the target counter, e.g. after a successful login.
func (p *Pair) Reset(target string) {
	p.target.Reset(strings.ToLower(strings.TrimSpace(target)))
}

// Stop ends both cleanup loops.
func (p *Pair) Stop() {
	p.ip.Stop()
	p.target.Stop()
}
