package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

// stubVerifier accepts the tokens it maps; "expired" reports an expired session.
type stubVerifier map[string]domain.Identity

func (s stubVerifier) Verify(token string) (domain.Identity, error) {
	if token == "expired" {
		return domain.Identity{}, domain.NewAppError(domain.CodeSessionExpired, "token expired", nil)
	}
	id, ok := s[token]
	if !ok {
		return domain.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

var testIdentities = stubVerifier{
	"admin":     {ID: 1, Name: "Admin", Role: domain.RoleAdmin},
	"recruiter": {ID: 2, Name: "Rita", Role: domain.RoleRecruiter},
}

func identityHandler(c *gin.Context) {
	id, _ := CurrentIdentity(c)
	c.JSON(http.StatusOK, id)
}

func TestBearerAuth(t *testing.T) {
	r := gin.New()
	r.GET("/api/me", BearerAuth(testIdentities), identityHandler)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
		wantID     uint
	}{
		{"missing header", "", http.StatusUnauthorized, "authentication required", 0},
		{"wrong scheme", "Basic YWRtaW4=", http.StatusUnauthorized, "authentication required", 0},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "authentication required", 0},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "invalid token", 0},
		{"expired token", "Bearer expired", http.StatusUnauthorized, "token expired", 0},
		{"valid token", "Bearer admin", http.StatusOK, "", 1},
		{"case-insensitive scheme", "bearer recruiter", http.StatusOK, "", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var resp pkg.Response
				_ = json.Unmarshal(w.Body.Bytes(), &resp)
				if resp.Message != tt.wantMsg {
					t.Errorf("message = %q; want %q", resp.Message, tt.wantMsg)
				}
				if w.Header().Get("WWW-Authenticate") == "" {
					t.Error("expected WWW-Authenticate header")
				}
				return
			}
			var id domain.Identity
			if err := json.Unmarshal(w.Body.Bytes(), &id); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if id.ID != tt.wantID {
				t.Errorf("identity ID = %d; want %d", id.ID, tt.wantID)
			}
		})
	}
}

func TestCookieAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin/jobs", CookieAuth(testIdentities, "/login"), identityHandler)

	tests := []struct {
		name         string
		cookie       string
		wantStatus   int
		wantLocation string
	}{
		{"no cookie", "", http.StatusFound, "/login?redirect=%2Fadmin%2Fjobs%3Fpage%3D2"},
		{"invalid cookie", "nope", http.StatusFound, "/login?redirect=%2Fadmin%2Fjobs%3Fpage%3D2"},
		{"expired cookie", "expired", http.StatusFound, "/login?redirect=%2Fadmin%2Fjobs%3Fpage%3D2"},
		{"valid cookie", "recruiter", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/jobs?page=2", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: domain.AuthCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q; want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/api/users", BearerAuth(testIdentities), RequireRole(domain.RoleAdmin), identityHandler)
	r.GET("/api/open", RequireRole(domain.RoleAdmin), identityHandler)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"admin allowed", "/api/users", "admin", http.StatusOK},
		{"recruiter forbidden", "/api/users", "recruiter", http.StatusForbidden},
		{"no identity", "/api/open", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestCurrentIdentity_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := CurrentIdentity(c); ok {
		t.Error("expected no identity on a fresh context")
	}
}
