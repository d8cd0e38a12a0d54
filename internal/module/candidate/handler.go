package candidate

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/pkg"
)

// Handler serves /api/candidates.
type Handler struct {
	svc Service
}

// NewHandler creates a Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(c *gin.Context) {
	var req Request
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	cand, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, cand)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	cand, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, cand)
}

func (h *Handler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, page)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pkg.ParamID(c)
	if !ok {
		return
	}
	var req Request
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	cand, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, cand)
}

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
