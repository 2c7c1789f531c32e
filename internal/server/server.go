package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/internal/util"
	"github.com/weftlabs/weft/pkg/ai"
	oai "github.com/weftlabs/weft/pkg/ai/ollama"
	gai "github.com/weftlabs/weft/pkg/ai/openai"
	"github.com/weftlabs/weft/pkg/index"
	"github.com/weftlabs/weft/pkg/logger"
	"github.com/weftlabs/weft/pkg/search"
	"github.com/weftlabs/weft/pkg/store"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Init builds the application state, registers routes and serves until
// interrupted.
func Init(graph *index.GraphIndex, keyword *search.KeywordIndex) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeHandles := store.NewHandleCache()
	defer storeHandles.Close()

	embedder, completer := buildAIClients(storeHandles)

	app := &mid.App{
		Graph:     graph,
		Keyword:   keyword,
		Embedder:  embedder,
		Completer: completer,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// buildAIClients assembles the embedding and completion clients from the
// environment. Both come back nil when no adapter is configured; the query
// route degrades accordingly.
func buildAIClients(storeHandles *store.HandleCache) (ai.EmbeddingClient, ai.CompletionClient) {
	var (
		embedder  ai.EmbeddingClient
		completer ai.CompletionClient
	)

	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			CompletionModel: util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		embedder = client
		completer = client
	case "openai":
		client := gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			CompletionModel: util.GetEnv("AI_CHAT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
		})
		embedder = client
		completer = client
	default:
		logger.Info("No AI adapter configured, query answering disabled")
		return nil, nil
	}

	// Persistent embedding stores go through the handle cache, so idle
	// databases are closed after their TTL and reopened on demand.
	var persistent store.EmbeddingStore
	if path := util.GetEnv("EMBED_STORE_PATH"); path != "" {
		persistent = storeHandles.Store(path)
	}

	embedder = ai.NewCachedEmbeddingClient(ai.CachedEmbeddingClientParams{
		Inner: embedder,
		Store: persistent,
	})
	completer = ai.NewCachedCompletionClient(ai.CachedCompletionClientParams{
		Inner:        completer,
		DefaultModel: util.GetEnv("AI_CHAT_MODEL"),
	})
	return embedder, completer
}
