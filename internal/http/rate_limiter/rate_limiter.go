package rate_limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/http/ban"
	"github.com/rogerio-castellano/enterprise-bi/internal/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	bans     ban.Store
}

// New builds a per-client token bucket. bans may be nil to disable banning.
func New(rps float64, burst int, bans ban.Store) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*clientLimiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		bans:     bans,
	}
}

func (l *RateLimiter) GetVisitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(l.limit, l.burst)
		l.visitors[ip] = &clientLimiter{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// CleanupVisitors forgets clients idle for longer than maxIdle.
func (l *RateLimiter) CleanupVisitors(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(l.visitors, ip)
		}
	}
}

func (l *RateLimiter) StartVisitorCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.CleanupVisitors(5 * time.Minute)
		}
	}
}

func (l *RateLimiter) CleanupAllVisitors() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visitors = make(map[string]*clientLimiter)
}

func (l *RateLimiter) VisitorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware answers 403 for banned clients and 429 once a client's bucket is empty.
// Store failures are logged and do not block the request.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		logger := zerolog.Ctx(r.Context())

		if l.bans != nil {
			banned, err := l.bans.IsBanned(r.Context(), ip)
			if err != nil {
				logger.Warn().Err(err).Msg("ban lookup failed")
			}
			if banned {
				telemetry.RateLimitRejections.WithLabelValues("banned").Inc()
				http.Error(w, "client temporarily banned", http.StatusForbidden)
				return
			}
		}

		if !l.GetVisitor(ip).Allow() {
			telemetry.RateLimitRejections.WithLabelValues("rate").Inc()
			if l.bans != nil {
				if _, _, err := l.bans.AddStrike(r.Context(), ip, r.URL.Path); err != nil {
					logger.Warn().Err(err).Msg("failed to record rate limit strike")
				}
			}
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
