package httpserver

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/config"
)

// Per-IP token-bucket guard in front of the whole API. The per-user
// sliding-window limits on AI endpoints live in the ratelimit package;
// this layer only blunts abusive clients before they reach auth.
type ipLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	counter  atomic.Int64
}

func newIPLimiterStore(rps, burst int) *ipLimiterStore {
	return &ipLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (s *ipLimiterStore) limiterFor(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(s.rps, s.burst)
		s.limiters[ip] = limiter
	}

	// Every 1000 requests, evict idle clients to bound the map.
	if s.counter.Add(1)%1000 == 0 {
		for ip, limiter := range s.limiters {
			if limiter.Tokens() >= float64(s.burst) {
				delete(s.limiters, ip)
			}
		}
	}

	return limiter
}

// RateLimitMiddleware enforces the per-IP token bucket. With
// RateLimitRPS <= 0 it is a no-op pass-through.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next // disabled
	}

	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = cfg.RateLimitRPS
	}

	store := newIPLimiterStore(cfg.RateLimitRPS, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !store.limiterFor(extractIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			apierr.Write(w, apierr.New(apierr.RateLimited, "Too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractIP(r *http.Request) string {
	// Prefer X-Forwarded-For for proxied setups; first hop wins.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
