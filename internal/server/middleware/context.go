package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/weftlabs/weft/pkg/ai"
	"github.com/weftlabs/weft/pkg/index"
	"github.com/weftlabs/weft/pkg/search"
)

// App holds the shared state handlers operate on. All of it is built once
// at startup; the graph and keyword indexes are safe for concurrent reads.
type App struct {
	Graph     *index.GraphIndex
	Keyword   *search.KeywordIndex
	Embedder  ai.EmbeddingClient
	Completer ai.CompletionClient
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
