package ai

import (
	"context"
	"testing"
	"time"

	"github.com/weftlabs/weft/pkg/store"
)

type countingEmbedder struct {
	calls  int
	vector []float32
}

func (e *countingEmbedder) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	e.calls++
	return e.vector, nil
}

type countingCompleter struct {
	calls  int
	answer string
}

func (c *countingCompleter) GenerateCompletion(_ context.Context, _ string, _ ...GenerateOption) (string, error) {
	c.calls++
	return c.answer, nil
}

func TestCachedEmbeddingHitsSkipInner(t *testing.T) {
	inner := &countingEmbedder{vector: []float32{1, 2, 3}}
	client := NewCachedEmbeddingClient(CachedEmbeddingClientParams{Inner: inner})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		vector, err := client.GenerateEmbedding(ctx, []byte("même texte"))
		if err != nil {
			t.Fatalf("embedding failed: %v", err)
		}
		if len(vector) != 3 {
			t.Fatalf("expected 3 components, got %d", len(vector))
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one inner call, got %d", inner.calls)
	}

	if _, err := client.GenerateEmbedding(ctx, []byte("autre texte")); err != nil {
		t.Fatalf("embedding failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a second inner call for new text, got %d", inner.calls)
	}
}

func TestCachedEmbeddingWritesThroughStore(t *testing.T) {
	persistent, err := store.OpenBadgerStore(store.BadgerStoreParams{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { persistent.Close() })

	ctx := context.Background()
	inner := &countingEmbedder{vector: []float32{0.5}}
	client := NewCachedEmbeddingClient(CachedEmbeddingClientParams{Inner: inner, Store: persistent})

	if _, err := client.GenerateEmbedding(ctx, []byte("texte")); err != nil {
		t.Fatalf("embedding failed: %v", err)
	}

	// A fresh wrapper with an empty memory cache should find the vector in
	// the persistent store without calling the inner client.
	second := NewCachedEmbeddingClient(CachedEmbeddingClientParams{
		Inner: &countingEmbedder{vector: []float32{9}},
		Store: persistent,
	})
	vector, err := second.GenerateEmbedding(ctx, []byte("texte"))
	if err != nil {
		t.Fatalf("embedding failed: %v", err)
	}
	if len(vector) != 1 || vector[0] != 0.5 {
		t.Errorf("expected persisted vector [0.5], got %v", vector)
	}
	if inner.calls != 1 {
		t.Errorf("expected one inner call in total, got %d", inner.calls)
	}
}

func TestCachedCompletionKeyedByModelAndPrompt(t *testing.T) {
	inner := &countingCompleter{answer: "réponse"}
	client := NewCachedCompletionClient(CachedCompletionClientParams{
		Inner:        inner,
		DefaultModel: "default-model",
	})
	ctx := context.Background()

	if _, err := client.GenerateCompletion(ctx, "question"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if _, err := client.GenerateCompletion(ctx, "question"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected one inner call for the repeated prompt, got %d", inner.calls)
	}

	// A different model makes a different key even for the same prompt.
	if _, err := client.GenerateCompletion(ctx, "question", WithModel("other-model")); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a second inner call for the other model, got %d", inner.calls)
	}
}

func TestCachedEmbeddingHonorsCacheSize(t *testing.T) {
	inner := &countingEmbedder{vector: []float32{1}}
	client := NewCachedEmbeddingClient(CachedEmbeddingClientParams{Inner: inner, CacheSize: 1})
	ctx := context.Background()

	// With room for a single entry, embedding B evicts A, so repeating A
	// has to go back to the inner client.
	for _, input := range []string{"a", "b", "a"} {
		if _, err := client.GenerateEmbedding(ctx, []byte(input)); err != nil {
			t.Fatalf("embedding failed: %v", err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 inner calls with capacity 1, got %d", inner.calls)
	}
}

func TestCachedCompletionHonorsTTL(t *testing.T) {
	inner := &countingCompleter{answer: "réponse"}
	client := NewCachedCompletionClient(CachedCompletionClientParams{
		Inner: inner,
		TTL:   time.Nanosecond,
	})
	ctx := context.Background()

	if _, err := client.GenerateCompletion(ctx, "question"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := client.GenerateCompletion(ctx, "question"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected the expired answer to be recomputed, got %d calls", inner.calls)
	}
}
