package candidate

import "github.com/gin-gonic/gin"

// Module registers candidate routes behind authentication.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("candidate.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

func (m *Module) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/candidates")
	g.POST("", m.handler.Create)
	g.GET("", m.handler.List)
	g.GET("/:id", m.handler.Get)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
}
