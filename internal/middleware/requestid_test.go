package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// requestIDRouter answers with the id seen by the handler through both the
// gin context and the logger context attributes.
func requestIDRouter(cfg RequestIDConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDWithConfig(cfg))
	r.GET("/api/jobs", func(c *gin.Context) {
		var fromCtx string
		for _, a := range logger.FromContext(c.Request.Context()) {
			if a.Key == "request_id" {
				fromCtx = a.Value.String()
			}
		}
		c.String(http.StatusOK, GetRequestID(c)+"|"+fromCtx)
	})
	return r
}

func TestRequestID(t *testing.T) {
	long64 := strings.Repeat("a", 64)
	tests := []struct {
		name     string
		trust    bool
		upstream string
		want     string // empty means a generated UUID
	}{
		{"generated", false, "", ""},
		{"upstream ignored by default", false, "console-1", ""},
		{"trusted upstream reused", true, "console-1", "console-1"},
		{"64 characters reused", true, long64, long64},
		{"too long replaced", true, long64 + "a", ""},
		{"unsafe characters replaced", true, "id\nInjected: yes", ""},
		{"spaces replaced", true, "has space", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			if tt.upstream != "" {
				req.Header[requestIDHeader] = []string{tt.upstream}
			}
			w := httptest.NewRecorder()
			requestIDRouter(RequestIDConfig{TrustUpstream: tt.trust}).ServeHTTP(w, req)

			got, fromCtx, _ := strings.Cut(w.Body.String(), "|")
			if got != fromCtx {
				t.Errorf("gin context id %q differs from logger context id %q", got, fromCtx)
			}
			if w.Header().Get(requestIDHeader) != got {
				t.Errorf("response header = %q; want %q", w.Header().Get(requestIDHeader), got)
			}
			if tt.want != "" {
				if got != tt.want {
					t.Errorf("id = %q; want %q", got, tt.want)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("id = %q; want a generated UUID", got)
			}
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	r := requestIDRouter(RequestIDConfig{})
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
		id := w.Header().Get(requestIDHeader)
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

func TestRequestID_CustomGenerator(t *testing.T) {
	n := 0
	r := requestIDRouter(RequestIDConfig{Generator: func() string {
		n++
		return "req-" + strings.Repeat("x", n)
	}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if got := w.Header().Get(requestIDHeader); got != "req-x" {
		t.Errorf("id = %q; want req-x", got)
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetRequestID(c); got != "" {
		t.Errorf("GetRequestID = %q; want empty", got)
	}
}

