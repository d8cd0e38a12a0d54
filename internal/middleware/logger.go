package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerConfig tunes the access log.
type LoggerConfig struct {
	// SkipPaths are matched against the route and are not logged when the
	// request succeeds, e.g. health probes and metric scrapes.
	SkipPaths []string
	// SlowThreshold raises successful requests slower than this to Warn.
	// Zero disables the check.
	SlowThreshold time.Duration
}

// Logger logs one line per request with the default LoggerConfig.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return LoggerWithConfig(logger, LoggerConfig{})
}

// LoggerWithConfig logs one line per request at Info, Warn for 4xx and slow
// requests, and Error for 5xx. Records go through the request context so
// request_id and user_id attributes are attached by the logger middleware.
func LoggerWithConfig(logger *slog.Logger, cfg LoggerConfig) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if status < 400 && skip[route] {
			return
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			attrs = append(attrs, slog.String("errors", errs.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case cfg.SlowThreshold > 0 && latency > cfg.SlowThreshold:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow", true))
		}
		logger.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}
