package contact

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

// Handler serves POST /api/contact.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Send(c *gin.Context) {
	var req Request
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Send(c.Request.Context(), req); err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "failed to send message", err))
		return
	}
	pkg.Success(c, nil)
}
