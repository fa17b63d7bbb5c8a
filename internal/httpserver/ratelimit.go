package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter is a per-IP token bucket limiter.
// Idle visitors are pruned lazily on access.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	lastGC   time.Time
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const visitorTTL = 5 * time.Minute

// newIPLimiter allows n requests per interval per IP. n <= 0 disables limiting.
func newIPLimiter(n int, interval time.Duration) *ipLimiter {
	l := &ipLimiter{visitors: make(map[string]*visitor), burst: n}
	if n > 0 {
		l.limit = rate.Every(interval / time.Duration(n))
	} else {
		l.limit = rate.Inf
	}
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

// clientIP returns the host part of RemoteAddr (already rewritten by chimw.RealIP).
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
