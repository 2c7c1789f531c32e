package server

import (
	"github.com/weftlabs/weft/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	apiRoutes.GET("/stats", routes.GetStatsHandler)

	// Entity routes
	apiRoutes.GET("/entities/by-name/:name", routes.GetEntityByNameHandler)
	apiRoutes.GET("/entities/:id", routes.GetEntityHandler)
	apiRoutes.GET("/entities/:id/chunks", routes.GetEntityChunksHandler)

	// Chunk routes
	apiRoutes.GET("/chunks/:id", routes.GetChunkHandler)
	apiRoutes.GET("/chunks/:id/entities", routes.GetChunkEntitiesHandler)

	// Retrieval routes
	apiRoutes.POST("/expand", routes.ExpandHandler)
	apiRoutes.POST("/search", routes.SearchHandler)
	apiRoutes.POST("/query", routes.QueryHandler)
}
