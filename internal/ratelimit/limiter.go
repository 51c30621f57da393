package ratelimit

import (
	"context"
	"log"
	"time"
)

// Policy is one predefined endpoint limit.
type Policy struct {
	Prefix      string
	MaxRequests int
	Window      time.Duration
}

// Predefined endpoint policies.
var (
	PolicyCoachChat         = Policy{"coach_chat", 100, 24 * time.Hour}
	PolicyQuickEntry        = Policy{"quick_entry", 200, 24 * time.Hour}
	PolicyProgramGeneration = Policy{"program_generation", 5, 30 * 24 * time.Hour}
	PolicyAIAPI             = Policy{"ai_api", 500, 24 * time.Hour}
)

// Result of one admission probe.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter performs sliding-window admission checks against a KVStore.
type Limiter struct {
	kv  KVStore
	now func() time.Time
}

func New(kv KVStore) *Limiter {
	return &Limiter{kv: kv, now: time.Now}
}

// NewWithClock injects a clock for tests.
func NewWithClock(kv KVStore, now func() time.Time) *Limiter {
	return &Limiter{kv: kv, now: now}
}

// Check admits or rejects one request for key. When the store is
// unavailable the limiter fails open: availability of the product
// outweighs strict cost control during infrastructure incidents.
func (l *Limiter) Check(ctx context.Context, key string, maxRequests int, window time.Duration) Result {
	count, err := l.kv.Probe(ctx, key, l.now(), window)
	if err != nil {
		log.Printf("[RateLimit] WARNING: probe failed for %s, failing open: %v", key, err)
		return Result{Allowed: true, Remaining: maxRequests}
	}

	if count >= maxRequests {
		return Result{Allowed: false, Remaining: 0, RetryAfter: window}
	}
	return Result{Allowed: true, Remaining: maxRequests - count - 1}
}

// CheckPolicy applies a predefined policy for one user.
func (l *Limiter) CheckPolicy(ctx context.Context, policy Policy, userID string) Result {
	return l.Check(ctx, policy.Prefix+":"+userID, policy.MaxRequests, policy.Window)
}
