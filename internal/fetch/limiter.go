package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/site-audit/internal/metrics"
)

// DomainLimiter throttles browser renders per host. It is the only fetch state
// shared across analyses.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	qps      rate.Limit
}

// NewDomainLimiter creates a limiter allowing qps renders per host. qps <= 0 disables limiting.
func NewDomainLimiter(qps float64) *DomainLimiter {
	limit := rate.Limit(qps)
	if qps <= 0 {
		limit = rate.Inf
	}
	return &DomainLimiter{limiters: make(map[string]*rate.Limiter), qps: limit}
}

// Wait blocks until the host of rawURL may be rendered again.
func (l *DomainLimiter) Wait(ctx context.Context, rawURL string) error {
	if l.qps == rate.Inf {
		return nil
	}
	host := metrics.SanitizeSite(rawURL)

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.qps, 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait render limiter: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(host, waited)
	}
	return nil
}
