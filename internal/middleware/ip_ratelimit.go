package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vetchat/chatbot-server-go/internal/audit"
	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/service"
)

// Limiter counts hits for a key within a sliding window.
type Limiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) service.RateLimitResult
}

// IPRateLimitMiddleware limits requests per client IP. It expects chi's
// RealIP middleware to have normalized RemoteAddr.
type IPRateLimitMiddleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter Limiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		res := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			secondsLeft := int(time.Until(res.ResetAt).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"scope": m.prefix},
			})
			writeError(w, http.StatusTooManyRequests, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
