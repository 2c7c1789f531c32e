package routes

import (
	"net/http"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/common"

	"github.com/labstack/echo/v4"
)

func GetChunkHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	chunk, ok := app.Graph.GetChunk(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Chunk not found"})
	}
	return c.JSON(http.StatusOK, chunk)
}

func GetChunkEntitiesHandler(c echo.Context) error {
	type entitiesResponse struct {
		ChunkID  string          `json:"chunk_id"`
		Entities []common.Entity `json:"entities"`
	}

	app := c.(*middleware.AppContext).App

	id := c.Param("id")
	if _, ok := app.Graph.GetChunk(id); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Chunk not found"})
	}

	return c.JSON(http.StatusOK, entitiesResponse{
		ChunkID:  id,
		Entities: app.Graph.GetEntitiesForChunk(id),
	})
}
