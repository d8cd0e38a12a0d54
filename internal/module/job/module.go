package job

import "github.com/gin-gonic/gin"

// Module registers job routes. Listing and detail are public so the careers
// page can render without a session.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("job.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

func (m *Module) RegisterRoutes(public, protected *gin.RouterGroup) {
	pub := public.Group("/jobs")
	pub.GET("", m.handler.List)
	pub.GET("/active", m.handler.Active)
	pub.GET("/:id", m.handler.Get)

	g := protected.Group("/jobs")
	g.POST("", m.handler.Create)
	g.PUT("/:id", m.handler.Update)
	g.PATCH("/:id/status", m.handler.SetStatus)
	g.DELETE("/:id", m.handler.Delete)
}
