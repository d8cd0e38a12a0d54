package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/middleware"
	"github.com/simp-lee/hireline/internal/pkg"
)

// mockService implements Service for handler testing.
type mockService struct {
	result *domain.LoginResult
	err    error
}

func (m *mockService) Login(context.Context, string, string) (*domain.LoginResult, error) {
	return m.result, m.err
}

type stubVerifier struct{ id domain.Identity }

func (s stubVerifier) Verify(token string) (domain.Identity, error) {
	if token != "good" {
		return domain.Identity{}, errors.New("bad token")
	}
	return s.id, nil
}

func setupAuthRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	public := r.Group("/api")
	protected := public.Group("", middleware.BearerAuth(stubVerifier{id: domain.Identity{ID: 9, Name: "Alice", Role: domain.RoleAdmin}}))
	NewModule(NewHandler(svc)).RegisterRoutes(public, protected)
	return r
}

func postLogin(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login_Success(t *testing.T) {
	r := setupAuthRouter(&mockService{result: &domain.LoginResult{
		AccessToken: "tok-123",
		ExpiresAt:   1700000000,
		User:        domain.Identity{ID: 1, Name: "Alice", Role: domain.RoleAdmin},
	}})

	w := postLogin(r, `{"email":"alice@example.com","password":"secret1234"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Code int                `json:"code"`
		Data domain.LoginResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data.AccessToken != "tok-123" || resp.Data.User.Name != "Alice" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantMsg    string
	}{
		{"missing fields", `{}`, nil, http.StatusBadRequest, "validation error"},
		{"bad email", `{"email":"nope","password":"x"}`, nil, http.StatusBadRequest, "validation error"},
		{"wrong credentials", `{"email":"alice@example.com","password":"x"}`, domain.ErrUnauthorized, http.StatusUnauthorized, "invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupAuthRouter(&mockService{err: tt.svcErr})
			w := postLogin(r, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			var resp pkg.Response
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if !strings.HasPrefix(resp.Message, tt.wantMsg) {
				t.Errorf("message = %q; want %q", resp.Message, tt.wantMsg)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	r := setupAuthRouter(&mockService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data domain.Identity `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.ID != 9 || resp.Data.Name != "Alice" {
		t.Errorf("identity = %+v", resp.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d; want 401", w.Code)
	}
}
