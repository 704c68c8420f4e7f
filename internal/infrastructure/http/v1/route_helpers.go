package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler is implemented by handlers serving a catalog's CRUD routes.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers the standard CRUD routes of a catalog on group.
// Extra middleware applies to the mutating routes only.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, mutate ...gin.HandlerFunc) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", append(mutate, handler.Create)...)
	group.PUT("/:id", append(mutate, handler.Update)...)
	group.DELETE("/:id", append(mutate, handler.Delete)...)
}
