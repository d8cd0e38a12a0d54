package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// Upstream ids are limited to UUID-like tokens so they are safe to log.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestIDConfig controls where request ids come from.
type RequestIDConfig struct {
	// TrustUpstream reuses a well-formed incoming X-Request-ID, such as the
	// one the console client sends with every call.
	TrustUpstream bool
	// Generator creates new ids. Defaults to uuid.NewString.
	Generator func() string
}

// RequestID assigns a fresh id to every request and ignores upstream ids.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig stores the id in the gin context, echoes it in the
// X-Request-ID response header and attaches it to the request context so
// every log record of the request carries request_id.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	gen := cfg.Generator
	if gen == nil {
		gen = uuid.NewString
	}
	return func(c *gin.Context) {
		var id string
		if upstream := c.GetHeader(requestIDHeader); cfg.TrustUpstream && requestIDPattern.MatchString(upstream) {
			id = upstream
		} else {
			id = gen()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id)),
		)
		c.Next()
	}
}

// GetRequestID returns the id assigned to the request, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}
