package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/pkg"
)

// Recovery recovers from panics, logs them with the stack trace and answers
// with the standard JSON envelope:
//
//	{"code": 500, "message": "internal server error", "data": null}
//
// Nothing is written when the response has already started or the client
// has gone away.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			brokenPipe := isBrokenPipe(rec)
			attrs := []any{
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			}
			if !brokenPipe {
				attrs = append(attrs, slog.String("stack", string(debug.Stack())))
			}
			logger.ErrorContext(c.Request.Context(), "panic recovered", attrs...)

			if brokenPipe || c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.Response{
				Code:    http.StatusInternalServerError,
				Message: "internal server error",
			})
		}()
		c.Next()
	}
}

func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
