package application

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

// formOverhead is allowed on top of the CV size for the scalar fields and
// multipart framing.
const formOverhead = 1 << 20

// Handler serves /api/job-applications.
type Handler struct {
	svc      Service
	maxBytes int64
}

// NewHandler creates a Handler accepting CVs of up to maxCVBytes.
func NewHandler(svc Service, maxCVBytes int64) *Handler {
	return &Handler{svc: svc, maxBytes: maxCVBytes + formOverhead}
}

// Submit handles the public multipart POST /api/job-applications.
func (h *Handler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	var req SubmitRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	fh, err := c.FormFile("cvFile")
	if err != nil {
		pkg.Error(c, domain.NewValidationError(map[string]string{"cvFile": "a CV file is required"}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "unreadable CV upload", err))
		return
	}
	defer f.Close()

	app, err := h.svc.Submit(c.Request.Context(), req, Upload{Name: fh.Filename, Body: f})
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, app)
}

// Get handles GET /api/job-applications/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	app, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, app)
}

// List handles GET /api/job-applications.
func (h *Handler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, page)
}

// Update handles PUT /api/job-applications/:id. Only the status is editable.
func (h *Handler) Update(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	app, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, app)
}

// Delete handles DELETE /api/job-applications/:id.
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

// DownloadCV handles GET /api/job-applications/:id/cv.
func (h *Handler) DownloadCV(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	app, f, err := h.svc.OpenCV(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "failed to read CV", err))
		return
	}
	contentType := app.CVType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(app.CVFileName),
	})
}
