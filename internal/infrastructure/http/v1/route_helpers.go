// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"bizbook/internal/domain/auth"
	"bizbook/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// ExportRouteHandler is implemented by catalog handlers that can render an XLSX list.
type ExportRouteHandler interface {
	Exportable() bool
	Export(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByNumber(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

func permission(module, action string) gin.HandlerFunc {
	return middleware.RequirePermission(auth.PermissionCode(module, action))
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// The export route is added when the handler has an export table.
//
// Usage:
//
//	repo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
//	service := warehouse.NewService(repo, cfg.TxManager, cfg.Numerator)
//	handler := handlers.NewWarehouseHandler(baseHandler, service)
//	RegisterCatalogRoutes(rg.Group("/warehouses"), handler, "warehouses")
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, module string) {
	group.GET("", permission(module, auth.ActionRead), handler.List)
	group.POST("", permission(module, auth.ActionCreate), handler.Create)
	if exporter, ok := handler.(ExportRouteHandler); ok && exporter.Exportable() {
		group.GET("/export", permission(module, auth.ActionExport), exporter.Export)
	}
	group.GET("/:id", permission(module, auth.ActionRead), handler.Get)
	group.PUT("/:id", permission(module, auth.ActionUpdate), handler.Update)
	group.DELETE("/:id", permission(module, auth.ActionDelete), handler.Delete)
	group.POST("/:id/deletion-mark", permission(module, auth.ActionDelete), handler.SetDeletionMark)
}

// RegisterDocumentRoutes registers standard CRUD routes for a document type.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, module string) {
	group.GET("", permission(module, auth.ActionRead), handler.List)
	group.POST("", permission(module, auth.ActionCreate), handler.Create)
	group.GET("/number/:number", permission(module, auth.ActionRead), handler.GetByNumber)
	group.GET("/:id", permission(module, auth.ActionRead), handler.Get)
	group.PUT("/:id", permission(module, auth.ActionUpdate), handler.Update)
	group.DELETE("/:id", permission(module, auth.ActionDelete), handler.Delete)
}
