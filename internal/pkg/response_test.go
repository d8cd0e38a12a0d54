package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/domain"
)

type companyForm struct {
	Name         string `json:"name" binding:"required,min=2"`
	ContactEmail string `json:"contactEmail" binding:"omitempty,email"`
	Website      string `json:"website" binding:"omitempty,url"`
	Openings     int    `json:"openings" binding:"gte=0"`
}

type applicationForm struct {
	JobID uint   `form:"jobId" binding:"required"`
	Email string `form:"email" binding:"required,email"`
}

func serve(t *testing.T, h gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Any("/x", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) ValidationErrorResponse {
	t.Helper()
	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
	return resp
}

func TestSuccessCreatedList(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantData   string
	}{
		{"success", func(c *gin.Context) { Success(c, domain.Company{Name: "Acme"}) }, http.StatusOK, `"name":"Acme"`},
		{"created", func(c *gin.Context) { Created(c, map[string]uint{"id": 4}) }, http.StatusCreated, `"id":4`},
		{"list", func(c *gin.Context) {
			List(c, domain.NewPage([]domain.Company{{Name: "Acme"}}, 11, domain.PageRequest{Page: 1, PageSize: 10}))
		}, http.StatusOK, `"totalElements":11,"totalPages":2,"number":1,"size":10`},
		{"nil data", func(c *gin.Context) { Success(c, nil) }, http.StatusOK, `"data":null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, tt.handler, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Code != tt.wantStatus || resp.Message != "success" {
				t.Errorf("envelope = %+v", resp)
			}
			if !strings.Contains(w.Body.String(), tt.wantData) {
				t.Errorf("body = %s; want it to contain %s", w.Body.String(), tt.wantData)
			}
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not found"},
		{"conflict", domain.NewAppError(domain.CodeAlreadyExists, "email already registered", nil), http.StatusConflict, "email already registered"},
		{"forbidden", domain.NewAppError(domain.CodeForbidden, "insufficient role", nil), http.StatusForbidden, "insufficient role"},
		{"wrapped", errors.Join(errors.New("ctx"), domain.NewAppError(domain.CodeUnauthorized, "invalid credentials", nil)), http.StatusUnauthorized, "invalid credentials"},
		{"plain error is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, func(c *gin.Context) { Error(c, tt.err) }, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			var resp Response
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Message != tt.wantMsg || resp.Data != nil {
				t.Errorf("resp = %+v; want message %q", resp, tt.wantMsg)
			}
		})
	}
}

func TestError_ValidationFields(t *testing.T) {
	err := domain.NewValidationError(map[string]string{
		"jobId": "job is closed",
		"email": "you have already applied for this job",
	})
	w := serve(t, func(c *gin.Context) { Error(c, err) }, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeValidation(t, w)
	if len(resp.Errors) != 2 || resp.Errors["jobId"] != "job is closed" {
		t.Errorf("errors = %v", resp.Errors)
	}
	if resp.Message != "validation error: email: you have already applied for this job" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantFields map[string]string
	}{
		{"valid", `{"name":"Acme","contactEmail":"hr@acme.test"}`, true, nil},
		{"missing name", `{}`, false, map[string]string{"name": "is required"}},
		{"short name", `{"name":"A"}`, false, map[string]string{"name": "must be at least 2 characters"}},
		{"bad email and url", `{"name":"Acme","contactEmail":"nope","website":"nope"}`, false, map[string]string{
			"contactEmail": "must be a valid email address",
			"website":      "must be a valid URL",
		}},
		{"negative openings", `{"name":"Acme","openings":-1}`, false, map[string]string{"openings": "must be at least 0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ok bool
			h := func(c *gin.Context) {
				var form companyForm
				if ok = BindAndValidate(c, &form); ok {
					Success(c, form)
				}
			}
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(t, h, req)

			if ok != tt.wantOK {
				t.Fatalf("ok = %v; want %v (body %s)", ok, tt.wantOK, w.Body.String())
			}
			if tt.wantOK {
				return
			}
			resp := decodeValidation(t, w)
			if w.Code != http.StatusBadRequest || !strings.HasPrefix(resp.Message, "validation error: ") {
				t.Errorf("status %d message %q", w.Code, resp.Message)
			}
			for field, msg := range tt.wantFields {
				if resp.Errors[field] != msg {
					t.Errorf("errors[%s] = %q; want %q", field, resp.Errors[field], msg)
				}
			}
		})
	}
}

func TestBindAndValidate_FormTags(t *testing.T) {
	h := func(c *gin.Context) {
		var form applicationForm
		BindAndValidate(c, &form)
	}
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("email=bad"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := decodeValidation(t, serve(t, h, req))
	if resp.Errors["jobId"] != "is required" || resp.Errors["email"] != "must be a valid email address" {
		t.Errorf("errors = %v; want form tag names", resp.Errors)
	}
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	h := func(c *gin.Context) {
		var form companyForm
		BindAndValidate(c, &form)
	}
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(t, h, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Message == "" || strings.HasPrefix(resp.Message, "validation error") {
		t.Errorf("message = %q; want the decoder error", resp.Message)
	}
}

func TestParamID(t *testing.T) {
	tests := []struct {
		path   string
		wantID uint
		wantOK bool
	}{
		{"/x/12", 12, true},
		{"/x/0", 0, false},
		{"/x/-3", 0, false},
		{"/x/abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := gin.New()
			var gotID uint
			var gotOK bool
			r.GET("/x/:id", func(c *gin.Context) { gotID, gotOK = ParamID(c) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if gotID != tt.wantID || gotOK != tt.wantOK {
				t.Errorf("ParamID = %d, %v; want %d, %v", gotID, gotOK, tt.wantID, tt.wantOK)
			}
			if !tt.wantOK && w.Code != http.StatusBadRequest {
				t.Errorf("status = %d; want 400", w.Code)
			}
		})
	}
}
