package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether a client may issue another request
type RateLimiter interface {
	Allow(clientID string) bool
	Reset(clientID string)
}

// RateLimitRecorder receives rejected-request observations
type RateLimitRecorder interface {
	RecordRateLimitExceeded(route string)
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter implements per-client token buckets
type ClientRateLimiter struct {
	enabled         bool
	limiters        map[string]*clientLimiter
	mu              sync.Mutex
	rpm             int
	burst           int
	logger          *logrus.Logger
	idleTimeout     time.Duration
	cleanupInterval time.Duration
}

// NewRateLimiter creates a rate limiter. Idle clients are evicted until ctx is done.
func NewRateLimiter(ctx context.Context, cfg *config.RateLimitConfig, logger *logrus.Logger) *ClientRateLimiter {
	if !cfg.Enabled {
		return &ClientRateLimiter{enabled: false}
	}

	rl := &ClientRateLimiter{
		enabled:         true,
		limiters:        make(map[string]*clientLimiter),
		rpm:             cfg.RequestsPerMinute,
		burst:           cfg.Burst,
		logger:          logger,
		idleTimeout:     10 * time.Minute,
		cleanupInterval: time.Minute,
	}

	go rl.cleanup(ctx)

	return rl
}

// Allow checks if a client is allowed to make a request
func (r *ClientRateLimiter) Allow(clientID string) bool {
	if !r.enabled {
		return true
	}

	allowed := r.getLimiter(clientID).Allow()
	if !allowed {
		r.logger.WithField("client", clientID).Warn("Rate limit exceeded")
	}
	return allowed
}

// Reset forgets the bucket of a client
func (r *ClientRateLimiter) Reset(clientID string) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	delete(r.limiters, clientID)
	r.mu.Unlock()
}

func (r *ClientRateLimiter) getLimiter(clientID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cl, exists := r.limiters[clientID]; exists {
		cl.lastSeen = time.Now()
		return cl.limiter
	}

	// Rate per second = RPM / 60
	rps := float64(r.rpm) / 60.0
	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), r.burst),
		lastSeen: time.Now(),
	}
	r.limiters[clientID] = cl
	return cl.limiter
}

func (r *ClientRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.evictIdle(now)
		}
	}
}

func (r *ClientRateLimiter) evictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, cl := range r.limiters {
		if now.Sub(cl.lastSeen) > r.idleTimeout {
			delete(r.limiters, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.WithField("evicted", evicted).Debug("Removed idle rate limiters")
	}
	return evicted
}

// RateLimit rejects requests over the client's budget with 429 and a localized message
func RateLimit(limiter RateLimiter, localizer *i18n.Localizer, metrics RateLimitRecorder, defaultLanguage models.Language) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow(ClientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if metrics != nil {
				metrics.RecordRateLimitExceeded(routeName(r))
			}
			lang := models.ParseLanguage(r.URL.Query().Get("language"), defaultLanguage)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(models.ErrorResponse{
				Error: localizer.Get(lang.String(), i18n.MsgRateLimitExceeded, nil),
				Kind:  "rate_limit",
			})
		})
	}
}

// ClientIP returns the host part of the request's remote address
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
