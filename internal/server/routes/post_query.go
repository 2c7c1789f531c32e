package routes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/ai"
	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/index"
	"github.com/weftlabs/weft/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	queryDefaultMaxHops   = 2
	queryDefaultMaxChunks = 6
	querySeedCommunities  = 5
	queryCandidateChunks  = 32
)

const answerSystemPrompt = "Tu es un assistant qui répond aux questions en " +
	"t'appuyant uniquement sur les extraits fournis. Si les extraits ne " +
	"permettent pas de répondre, dis-le."

// QueryHandler answers a question against the loaded collections. Keyword
// search picks candidate communities, their member entities seed a weighted
// expansion, and the reachable chunks most similar to the question are fed
// to the completion model.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Question    string   `json:"question" validate:"required"`
		Collections []string `json:"collections"`
		MaxHops     int      `json:"max_hops" validate:"gte=0"`
		MaxChunks   int      `json:"max_chunks" validate:"gte=0"`
	}

	type queryResponse struct {
		TraceID string   `json:"trace_id"`
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	if app.Completer == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Completion model not configured"})
	}

	maxHops := data.MaxHops
	if maxHops == 0 {
		maxHops = queryDefaultMaxHops
	}
	maxChunks := data.MaxChunks
	if maxChunks == 0 {
		maxChunks = queryDefaultMaxChunks
	}

	ctx := c.Request().Context()

	seeds := seedEntityIDs(app, data.Question, data.Collections)
	entities, _ := app.Graph.ExpandWeighted(index.ExpandParams{
		Seeds:       seeds,
		MaxHops:     maxHops,
		Collections: data.Collections,
	})

	chunks := candidateChunks(app, entities)
	chunks = rankChunks(ctx, app.Embedder, data.Question, chunks, maxChunks)

	answer, err := app.Completer.GenerateCompletion(
		ctx,
		buildQueryPrompt(data.Question, chunks),
		ai.WithSystemPrompts(answerSystemPrompt),
	)
	if err != nil {
		logger.Error("[Query] completion failed", "error", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Completion failed"})
	}

	sources := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, chunk.ID)
	}

	traceID, _ := gonanoid.New()
	return c.JSON(http.StatusOK, queryResponse{
		TraceID: traceID,
		Answer:  answer,
		Sources: sources,
	})
}

// seedEntityIDs resolves the member entities of the best-matching
// communities into graph node ids.
func seedEntityIDs(app *middleware.App, question string, collections []string) []string {
	results := app.Keyword.Search(question, querySeedCommunities, 0)

	allowed := map[string]struct{}{}
	for _, col := range collections {
		allowed[col] = struct{}{}
	}

	var seeds []string
	seen := map[string]struct{}{}
	for _, result := range results {
		if len(allowed) > 0 {
			if _, ok := allowed[result.Collection]; !ok {
				continue
			}
		}
		for _, name := range result.Nodes {
			entity, ok := app.Graph.GetEntityByName(name)
			if !ok {
				continue
			}
			if _, dup := seen[entity.ID]; dup {
				continue
			}
			seen[entity.ID] = struct{}{}
			seeds = append(seeds, entity.ID)
		}
	}
	return seeds
}

func candidateChunks(app *middleware.App, entities []common.ExpandedEntity) []common.Chunk {
	var chunks []common.Chunk
	seen := map[string]struct{}{}
	for _, entity := range entities {
		for _, chunk := range app.Graph.GetChunksForEntity(entity.ID) {
			if _, dup := seen[chunk.ID]; dup {
				continue
			}
			seen[chunk.ID] = struct{}{}
			chunks = append(chunks, chunk)
			if len(chunks) >= queryCandidateChunks {
				return chunks
			}
		}
	}
	return chunks
}

// rankChunks orders candidates by cosine similarity to the question
// embedding. Without an embedding client, or when embedding fails, the
// expansion order is kept.
func rankChunks(ctx context.Context, embedder ai.EmbeddingClient, question string, chunks []common.Chunk, maxChunks int) []common.Chunk {
	if embedder == nil || len(chunks) <= maxChunks {
		return capChunks(chunks, maxChunks)
	}

	questionVec, err := embedder.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		logger.Warn("[Query] question embedding failed, keeping expansion order", "error", err)
		return capChunks(chunks, maxChunks)
	}

	type scored struct {
		chunk common.Chunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := embedder.GenerateEmbedding(ctx, []byte(chunk.Content))
		if err != nil {
			logger.Warn("[Query] chunk embedding failed, keeping expansion order", "chunk", chunk.ID, "error", err)
			return capChunks(chunks, maxChunks)
		}
		ranked = append(ranked, scored{chunk: chunk, score: cosineSimilarity(questionVec, vec)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]common.Chunk, 0, maxChunks)
	for _, s := range ranked[:maxChunks] {
		out = append(out, s.chunk)
	}
	return out
}

func capChunks(chunks []common.Chunk, maxChunks int) []common.Chunk {
	if len(chunks) > maxChunks {
		return chunks[:maxChunks]
	}
	return chunks
}

func buildQueryPrompt(question string, chunks []common.Chunk) string {
	var b strings.Builder
	b.WriteString("Extraits:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, chunk.Content)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
