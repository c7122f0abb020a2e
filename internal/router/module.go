package router

import "github.com/gin-gonic/gin"

// Module is one feature area's route surface. Each module attaches its
// routes, including per-route middleware, to the shared /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
