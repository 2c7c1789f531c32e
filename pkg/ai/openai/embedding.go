package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weftlabs/weft/internal/util"
	"github.com/weftlabs/weft/pkg/ai"

	"github.com/openai/openai-go/v3"
)

const (
	defaultDimensions = 1024
	requestTimeout    = 5 * time.Minute
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model. Empty input embeds to a zero vector
// without an API round trip.
func (c *GraphOpenAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if c.EmbeddingClient == nil {
		return nil, errors.New("embedding client is not configured")
	}

	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	if len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, dim), nil
	}

	rCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{string(input)}},
		Model: c.embeddingModel,
	}

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	out := make([]float32, 0, dim)
	for _, v := range response.Data[0].Embedding {
		if len(out) >= dim {
			break
		}
		out = append(out, float32(v))
	}
	return out, nil
}
