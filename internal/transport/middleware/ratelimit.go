package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	base       *transport.BaseHandler
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	trustProxy bool
	now        func() time.Time
	mu         sync.Mutex
	buckets    map[string]*bucket
	lastSweep  time.Time
}

type RateLimiterOption func(*RateLimiter)

// TrustForwardedFor keys clients by X-Forwarded-For. Only enable it behind a
// proxy that overwrites the header.
func TrustForwardedFor(trust bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.trustProxy = trust
	}
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows perMinute requests per client, with a burst of the
// same size. A non-positive perMinute disables limiting.
func NewRateLimiter(base *transport.BaseHandler, perMinute int, opts ...RateLimiterOption) *RateLimiter {
	limit := rate.Inf
	burst := 0
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
		burst = perMinute
	}
	rl := &RateLimiter{
		base:    base,
		limit:   limit,
		burst:   burst,
		ttl:     10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(rl.clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			rl.base.WriteAppError(w, r, internal.ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	if rl.limit == rate.Inf {
		return true
	}

	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.seen = now
	allowed := b.limiter.AllowN(now, 1)

	// idle buckets are swept at most once per ttl
	if now.Sub(rl.lastSweep) >= rl.ttl {
		for key, other := range rl.buckets {
			if now.Sub(other.seen) > rl.ttl {
				delete(rl.buckets, key)
			}
		}
		rl.lastSweep = now
	}
	return allowed
}

func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
