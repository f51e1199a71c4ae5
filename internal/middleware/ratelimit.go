package middleware

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"

	"github.com/mmynk/cakepot/internal/metrics"
)

// ErrRateLimited is returned to callers that exceed their request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// idleTTL is how long an unused limiter is kept.
const idleTTL = 10 * time.Minute

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Callers are identified by
// account, or by peer address for anonymous requests.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rateEntry
	limit    rate.Limit
	burst    int
	exempt   map[string]bool
	metrics  *metrics.LedgerMetrics
	clockNow func() time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute with the given
// burst. Procedures listed in exempt are never limited.
func NewRateLimiter(requestsPerMinute float64, burst int, m *metrics.LedgerMetrics, exempt ...string) *RateLimiter {
	perSecond := requestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		visitors: make(map[string]*rateEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		exempt:   make(map[string]bool, len(exempt)),
		metrics:  m,
		clockNow: time.Now,
	}
	for _, p := range exempt {
		rl.exempt[p] = true
	}
	return rl
}

// Interceptor returns the Connect interceptor enforcing the limit.
// It must run after authentication so the caller account is known.
func (r *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			if r.exempt[procedure] {
				return next(ctx, req)
			}

			if !r.allow(callerID(ctx, req)) {
				r.metrics.ObserveThrottle(procedure)
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

func (r *RateLimiter) allow(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clockNow()
	entry, ok := r.visitors[id]
	if !ok {
		r.sweep(now)
		entry = &rateEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle limiters. Called with mu held.
func (r *RateLimiter) sweep(now time.Time) {
	for id, entry := range r.visitors {
		if now.Sub(entry.lastSeen) > idleTTL {
			delete(r.visitors, id)
		}
	}
}

func callerID(ctx context.Context, req connect.AnyRequest) string {
	if account := GetAccount(ctx); account != "" {
		return "account:" + account
	}
	addr := req.Peer().Addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return "peer:" + host
	}
	return "peer:" + addr
}
