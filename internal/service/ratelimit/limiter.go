package ratelimit

import (
	"strconv"
	"sync"
	"time"

	xhttp "MarketDash/pkg/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter hands out one token bucket per key and forgets keys idle for
// longer than idleTTL.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*visitor
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// New creates a keyed limiter allowing rps sustained with burst.
func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		m:       make(map[string]*visitor),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow reports whether one event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	v, ok := l.m[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = v
	}
	v.seen = now
	lim := v.limiter
	l.mu.Unlock()
	return lim.AllowN(now, 1)
}

// RetryAfter estimates when key gets its next token.
func (l *Limiter) RetryAfter() time.Duration {
	if l.rps <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / float64(l.rps))
}

// Sweep drops visitors idle past idleTTL and returns how many remain.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range l.m {
		if v.seen.Before(cutoff) {
			delete(l.m, k)
		}
	}
	return len(l.m)
}

// Middleware rejects requests over the per-client budget with a 429
// envelope and a Retry-After header. Clients are keyed by IP.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.Allow(c.RealIP()) {
				return next(c)
			}
			secs := int(l.RetryAfter().Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return xhttp.AppErrorResponse(c,
				xhttp.TooManyRequestsError("too many analysis requests, slow down").
					WithParam("retry_after", secs))
		}
	}
}
