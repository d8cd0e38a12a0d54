package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// public is reachable anonymously; protected requires a bearer token.
type Module interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}
