package routes

import (
	"net/http"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/common"

	"github.com/labstack/echo/v4"
)

func GetEntityHandler(c echo.Context) error {
	type entityResponse struct {
		Entity    common.Entity `json:"entity"`
		Neighbors []common.Edge `json:"neighbors"`
	}

	app := c.(*middleware.AppContext).App

	entity, ok := app.Graph.GetEntity(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	}

	return c.JSON(http.StatusOK, entityResponse{
		Entity:    entity,
		Neighbors: app.Graph.GetNeighbors(entity.ID),
	})
}

func GetEntityByNameHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	entity, ok := app.Graph.GetEntityByName(c.Param("name"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	}
	return c.JSON(http.StatusOK, entity)
}

func GetEntityChunksHandler(c echo.Context) error {
	type chunksResponse struct {
		EntityID string         `json:"entity_id"`
		Chunks   []common.Chunk `json:"chunks"`
	}

	app := c.(*middleware.AppContext).App

	id := c.Param("id")
	if !app.Graph.HasEntity(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	}

	return c.JSON(http.StatusOK, chunksResponse{
		EntityID: id,
		Chunks:   app.Graph.GetChunksForEntity(id),
	})
}
