package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/userctx"
)

// Middleware guards a handler with a policy keyed by the authenticated
// user. Requests without a user on the context pass through; the auth
// middleware upstream already rejected them if auth is required.
func (l *Limiter) Middleware(policy Policy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.GetUserID(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		result := l.CheckPolicy(r.Context(), policy, userID)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			apierr.Write(w, apierr.New(apierr.RateLimited, "Too many requests").WithDetails(map[string]any{
				"retry_after": retryAfter,
			}))
			return
		}

		next.ServeHTTP(w, r)
	})
}
