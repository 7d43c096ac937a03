package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.POST("/analyze", s.analyze)

	imports := api.Group("/imports")
	imports.POST("", s.createImport)
	imports.GET("", s.listImports)
	imports.GET("/:id", s.getImport)
	imports.DELETE("/:id", s.deleteImport)
	imports.POST("/:id/files", s.addFile)
	imports.PUT("/:id/mapping", s.applyMapping)
	imports.POST("/:id/confirm", s.confirm)
	imports.POST("/:id/cancel", s.cancel)
	imports.PATCH("/:id/rows/:tempId", s.updateRow)
	imports.DELETE("/:id/rows/:tempId", s.removeRow)
	imports.POST("/:id/commit", s.commit)
	imports.GET("/:id/export", s.exportRows)

	catalog := api.Group("/catalog")
	catalog.GET("/categories", s.listCategories)
	catalog.GET("/cities", s.listCities)
	catalog.GET("/unrecognized-cities", s.listUnrecognized)
}
