package routes

import (
	"net/http"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/search"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SearchHandler runs a keyword search over the community reports.
func SearchHandler(c echo.Context) error {
	type searchBody struct {
		Query          string `json:"query" validate:"required"`
		MaxResults     int    `json:"max_results" validate:"gte=0"`
		MaxCollections int    `json:"max_collections" validate:"gte=0"`
	}

	type searchResponse struct {
		TraceID string          `json:"trace_id"`
		Results []search.Result `json:"results"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	results := app.Keyword.Search(data.Query, data.MaxResults, data.MaxCollections)

	traceID, _ := gonanoid.New()
	return c.JSON(http.StatusOK, searchResponse{
		TraceID: traceID,
		Results: results,
	})
}
