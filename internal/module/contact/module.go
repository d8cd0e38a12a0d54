package contact

import "github.com/gin-gonic/gin"

// Module registers the public contact form endpoint.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("contact.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

func (m *Module) RegisterRoutes(public, _ *gin.RouterGroup) {
	public.POST("/contact", m.handler.Send)
}
