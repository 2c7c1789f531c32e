package routes

import (
	"net/http"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/index"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ExpandHandler runs a weighted multi-hop expansion from the given seeds.
func ExpandHandler(c echo.Context) error {
	type expandBody struct {
		Seeds         []string `json:"seeds" validate:"required,min=1"`
		MaxHops       int      `json:"max_hops" validate:"gte=0"`
		MaxResults    int      `json:"max_results" validate:"gte=0"`
		Collections   []string `json:"collections"`
		IncludeChunks bool     `json:"include_chunks"`
	}

	type expandResponse struct {
		TraceID  string                  `json:"trace_id"`
		Entities []common.ExpandedEntity `json:"entities"`
		Paths    []common.PathEdge       `json:"paths"`
	}

	data := new(expandBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	entities, paths := app.Graph.ExpandWeighted(index.ExpandParams{
		Seeds:         data.Seeds,
		MaxHops:       data.MaxHops,
		MaxResults:    data.MaxResults,
		Collections:   data.Collections,
		IncludeChunks: data.IncludeChunks,
	})

	traceID, _ := gonanoid.New()
	return c.JSON(http.StatusOK, expandResponse{
		TraceID:  traceID,
		Entities: entities,
		Paths:    paths,
	})
}
