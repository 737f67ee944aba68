package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/responses"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
)

// RateStore counts hits per scope inside a fixed window and reports the
// time left in it.
type RateStore interface {
	IncrWithTTL(ctx context.Context, scope string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitPolicy throttles one traffic surface.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Limit  int
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && p.Limit > 0
}

func (p RateLimitPolicy) scope(r *http.Request) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "default"
	}
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return name + ":user:" + userID
	}
	return name + ":ip:" + clientIP(r)
}

// RateLimit enforces policy per authenticated user, or per client IP when
// the request is anonymous. Counter failures let the request through.
func RateLimit(policy RateLimitPolicy, store RateStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := policy.scope(r)

			count, ttl, err := store.IncrWithTTL(ctx, scope, policy.Window)
			if err != nil {
				if logg != nil {
					logg.Error(logg.WithField(ctx, "scope", scope), "rate_limit.store_failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(policy.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(policy.Limit) {
				retryAfter := int(ttl.Round(time.Second) / time.Second)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.Name,
						"scope":    scope,
						"attempts": count,
						"limit":    policy.Limit,
					}), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many uploads, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MemoryRateStore is the single-instance fallback used when Redis is not
// configured.
type MemoryRateStore struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]memoryWindow
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{now: time.Now, windows: map[string]memoryWindow{}}
}

func (s *MemoryRateStore) IncrWithTTL(_ context.Context, scope string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	current, ok := s.windows[scope]
	if !ok || !now.Before(current.resetAt) {
		current = memoryWindow{resetAt: now.Add(window)}
		s.sweep(now)
	}
	current.count++
	s.windows[scope] = current
	return current.count, current.resetAt.Sub(now), nil
}

func (s *MemoryRateStore) sweep(now time.Time) {
	for scope, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, scope)
		}
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
