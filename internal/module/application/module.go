package application

import "github.com/gin-gonic/gin"

// Module registers job application routes. Submission is public; review
// requires a session.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("application.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

func (m *Module) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/job-applications", m.handler.Submit)

	g := protected.Group("/job-applications")
	g.GET("", m.handler.List)
	g.GET("/:id", m.handler.Get)
	g.GET("/:id/cv", m.handler.DownloadCV)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
}
