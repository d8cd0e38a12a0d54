package job

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/pkg"
)

// Handler serves /api/jobs.
type Handler struct {
	svc Service
}

// NewHandler creates a Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /api/jobs.
func (h *Handler) Create(c *gin.Context) {
	var req Request
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, job)
}

// Get handles GET /api/jobs/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	job, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, job)
}

// List handles GET /api/jobs.
func (h *Handler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, page)
}

// Active handles GET /api/jobs/active. The result is a bare array.
func (h *Handler) Active(c *gin.Context) {
	jobs, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, jobs)
}

// Update handles PUT /api/jobs/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	var req Request
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, job)
}

// SetStatus handles PATCH /api/jobs/:id/status.
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if c.Request.ContentLength != 0 && !pkg.BindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, job)
}

// Delete handles DELETE /api/jobs/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
