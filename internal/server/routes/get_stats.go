package routes

import (
	"net/http"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/search"

	"github.com/labstack/echo/v4"
)

func GetStatsHandler(c echo.Context) error {
	type statsResponse struct {
		Graph   common.IndexStats `json:"graph"`
		Keyword search.Stats      `json:"keyword"`
	}

	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, statsResponse{
		Graph:   app.Graph.Stats(),
		Keyword: app.Keyword.Stats(),
	})
}
