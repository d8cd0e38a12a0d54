package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/middleware"
)

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a new UserModule with the given handler.
// Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes registers user API routes. Only admins manage accounts.
func (m *UserModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	users := protected.Group("/users", middleware.RequireRole(domain.RoleAdmin))
	users.POST("", m.handler.Create)
	users.GET("/:id", m.handler.Get)
	users.GET("", m.handler.List)
	users.PUT("/:id", m.handler.Update)
	users.DELETE("/:id", m.handler.Delete)
}
