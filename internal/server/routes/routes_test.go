package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weftlabs/weft/internal/server/middleware"
	"github.com/weftlabs/weft/pkg/ai"
	"github.com/weftlabs/weft/pkg/index"
	"github.com/weftlabs/weft/pkg/search"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

const testGraphML = `<?xml version="1.0" encoding="utf-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="entity_type" attr.type="string"/>
  <key id="d1" for="node" attr.name="description" attr.type="string"/>
  <key id="d2" for="node" attr.name="source_id" attr.type="string"/>
  <key id="d3" for="edge" attr.name="type" attr.type="string"/>
  <key id="d4" for="node" attr.name="entity_name" attr.type="string"/>
  <graph edgedefault="undirected">
    <node id="ent-centre">
      <data key="d4">"Centre Ville"</data>
      <data key="d0">"CONCEPT"</data>
      <data key="d1">"Centre ville"</data>
      <data key="d2">"chunk-1"</data>
    </node>
    <node id="ent-mairie">
      <data key="d4">"Mairie"</data>
      <data key="d0">"ORGANIZATION"</data>
      <data key="d1">"La mairie"</data>
    </node>
    <edge source="ent-centre" target="ent-mairie">
      <data key="d3">"CONCERNE"</data>
    </edge>
  </graph>
</graphml>`

const testChunks = `{
  "chunk-1": {
    "content": "Le centre ville accueille le marché chaque semaine.",
    "tokens": 12,
    "chunk_order_index": 0,
    "full_doc_id": "doc-1"
  }
}`

const testCommunities = `{
  "com-0": {
    "report_json": {
      "title": "Centre ville et mobilité",
      "summary": "Questions de circulation autour du centre.",
      "rating": 8.0
    },
    "nodes": ["Centre Ville"],
    "chunk_ids": ["chunk-1"]
  }
}`

type stubCompleter struct {
	prompt string
}

func (s *stubCompleter) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	s.prompt = prompt
	return "Réponse générée.", nil
}

type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	// Longer inputs get a distinct direction so ranking has something to do.
	if len(input) > 40 {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

func newTestServer(t *testing.T, completer ai.CompletionClient, embedder ai.EmbeddingClient) *echo.Echo {
	t.Helper()

	dir := t.TempDir()
	colDir := filepath.Join(dir, "ville")
	if err := os.MkdirAll(colDir, 0o755); err != nil {
		t.Fatalf("failed to create collection dir: %v", err)
	}
	files := map[string]string{
		"graph_chunk_entity_relation.graphml": testGraphML,
		"kv_store_text_chunks.json":           testChunks,
		"kv_store_community_reports.json":     testCommunities,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(colDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	graph := index.NewGraphIndex(dir)
	if err := graph.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("failed to initialize index: %v", err)
	}
	keyword := search.NewKeywordIndex(dir)
	if err := keyword.Refresh(); err != nil {
		t.Fatalf("failed to refresh keyword index: %v", err)
	}

	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	app := &middleware.App{
		Graph:     graph,
		Keyword:   keyword,
		Embedder:  embedder,
		Completer: completer,
	}
	e.Use(middleware.AppContextMiddleware(app))

	e.GET("/stats", GetStatsHandler)
	e.GET("/entities/:id", GetEntityHandler)
	e.GET("/entities/by-name/:name", GetEntityByNameHandler)
	e.GET("/entities/:id/chunks", GetEntityChunksHandler)
	e.GET("/chunks/:id", GetChunkHandler)
	e.GET("/chunks/:id/entities", GetChunkEntitiesHandler)
	e.POST("/expand", ExpandHandler)
	e.POST("/search", SearchHandler)
	e.POST("/query", QueryHandler)
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetEntityRoutes(t *testing.T) {
	e := newTestServer(t, nil, nil)

	rec := doJSON(e, http.MethodGet, "/entities/ent-centre", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Entity struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"entity"`
		Neighbors []struct {
			Target string `json:"target"`
		} `json:"neighbors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Entity.Type != "CONCEPT" {
		t.Errorf("expected CONCEPT, got %s", body.Entity.Type)
	}
	if len(body.Neighbors) != 2 {
		t.Errorf("expected edge plus provenance neighbor, got %d", len(body.Neighbors))
	}

	if rec := doJSON(e, http.MethodGet, "/entities/absent", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown entity, got %d", rec.Code)
	}
	// name lookup is case-insensitive
	if rec := doJSON(e, http.MethodGet, "/entities/by-name/centre%20ville", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for name lookup, got %d", rec.Code)
	}
}

func TestGetChunkRoutes(t *testing.T) {
	e := newTestServer(t, nil, nil)

	rec := doJSON(e, http.MethodGet, "/chunks/chunk-1/entities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Entities []struct {
			ID string `json:"id"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Entities) != 1 || body.Entities[0].ID != "ent-centre" {
		t.Errorf("expected ent-centre as source entity, got %+v", body.Entities)
	}

	if rec := doJSON(e, http.MethodGet, "/chunks/absent", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown chunk, got %d", rec.Code)
	}
}

func TestExpandHandlerValidation(t *testing.T) {
	e := newTestServer(t, nil, nil)

	if rec := doJSON(e, http.MethodPost, "/expand", `{"seeds": []}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without seeds, got %d", rec.Code)
	}

	rec := doJSON(e, http.MethodPost, "/expand", `{"seeds": ["ent-centre"], "max_hops": 1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		TraceID  string `json:"trace_id"`
		Entities []struct {
			ID string `json:"id"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.TraceID == "" {
		t.Error("expected a trace id")
	}
	if len(body.Entities) != 2 {
		t.Errorf("expected seed and neighbor, got %d entities", len(body.Entities))
	}
}

func TestSearchHandler(t *testing.T) {
	e := newTestServer(t, nil, nil)

	rec := doJSON(e, http.MethodPost, "/search", `{"query": "centre ville"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Results []struct {
			Title string `json:"title"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Results) != 1 {
		t.Fatalf("expected one community, got %d", len(body.Results))
	}
}

func TestQueryHandlerAnswersWithSources(t *testing.T) {
	completer := &stubCompleter{}
	e := newTestServer(t, completer, stubEmbedder{})

	rec := doJSON(e, http.MethodPost, "/query", `{"question": "Que se passe-t-il au centre ville ?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Answer != "Réponse générée." {
		t.Errorf("unexpected answer %q", body.Answer)
	}
	if len(body.Sources) != 1 || body.Sources[0] != "chunk-1" {
		t.Errorf("expected chunk-1 as source, got %v", body.Sources)
	}
	if !strings.Contains(completer.prompt, "marché") {
		t.Errorf("expected chunk content in prompt, got %q", completer.prompt)
	}
}

func TestQueryHandlerWithoutCompleter(t *testing.T) {
	e := newTestServer(t, nil, nil)

	if rec := doJSON(e, http.MethodPost, "/query", `{"question": "test"}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a completion model, got %d", rec.Code)
	}
}
