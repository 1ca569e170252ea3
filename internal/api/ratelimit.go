package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/ratelimit"
)

// NewAuthRateLimiter creates the per-IP limiter for the auth endpoints.
// ratePerMinute is converted to requests per second for the token bucket.
func NewAuthRateLimiter(ratePerMinute, burst int) *ratelimit.KeyedRateLimiter {
	rps := float64(ratePerMinute) / time.Minute.Seconds()
	return ratelimit.New(rps, burst)
}

// RateLimitMiddleware creates a middleware that rate limits requests by client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				if logger != nil {
					logger.Warn("Rate limit exceeded",
						"ip", key,
						"path", r.URL.Path,
					)
				}
				response.TooManyRequests(w, r, "Too many requests. Please try again later.", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For may contain multiple IPs, first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (strip port).
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
