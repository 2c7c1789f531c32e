package index

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/loader"
	"github.com/weftlabs/weft/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	chunkEntityType            = "CHUNK"
	chunkDescriptionLimit      = 200
	provenanceRelation         = "HAS_SOURCE"
	reverseProvenanceRelation  = "SOURCED_BY"
	defaultParallelCollections = 8
)

// GraphIndex holds the merged adjacency, entity, name, chunk, and provenance
// maps for every loaded collection. It is built once and read-only after
// Initialize returns; concurrent readers need no synchronization.
type GraphIndex struct {
	dataPath string

	initMu      sync.Mutex
	initialized bool

	adjacency  map[string][]common.Edge
	entities   map[string]common.Entity
	nameIndex  map[string]string
	chunks     map[string]common.Chunk
	provenance map[string][]string

	loadedCollections map[string]struct{}
	totalNodes        int
	totalEdges        int
	loadTimeMs        int64
}

// NewGraphIndex creates an empty index over the given data path. Call
// Initialize before querying.
func NewGraphIndex(dataPath string) *GraphIndex {
	return &GraphIndex{
		dataPath:          dataPath,
		adjacency:         make(map[string][]common.Edge),
		entities:          make(map[string]common.Entity),
		nameIndex:         make(map[string]string),
		chunks:            make(map[string]common.Chunk),
		provenance:        make(map[string][]string),
		loadedCollections: make(map[string]struct{}),
	}
}

// collectionData is the fan-out result for one collection, merged serially
// under the init lock.
type collectionData struct {
	id     string
	graph  loader.GraphData
	chunks map[string]common.Chunk
}

// Initialize loads the given collections into the index. A nil or empty
// list loads every collection discovered under the data path.
//
// Loading fans out one task per collection; each task only reads its own
// collection's files. The merge into the shared maps is serialized, and the
// whole sequence is guarded so concurrent first callers do not duplicate
// work: collections already loaded by an earlier call are skipped, which
// makes calling again with a superset of collections safe.
//
// A collection that fails to parse is logged and skipped; it never aborts
// the load of the others.
func (g *GraphIndex) Initialize(ctx context.Context, collectionIDs []string) error {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	start := time.Now()

	if len(collectionIDs) == 0 {
		discovered, err := loader.Discover(g.dataPath)
		if err != nil {
			return err
		}
		collectionIDs = discovered
	}

	var pending []string
	for _, id := range collectionIDs {
		if _, done := g.loadedCollections[id]; !done {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		g.initialized = true
		return nil
	}

	results := make([]*collectionData, len(pending))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(defaultParallelCollections)
	for i, id := range pending {
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			path := loader.CollectionPath(g.dataPath, id)

			graph, err := loader.LoadGraph(path, id)
			if err != nil {
				logger.Error("[Index] Skipping collection", "collection", id, "err", err)
				return nil
			}

			chunks, err := loader.LoadChunks(path, id)
			if err != nil {
				logger.Warn("[Index] Failed to load chunks", "collection", id, "err", err)
				chunks = map[string]common.Chunk{}
			}

			results[i] = &collectionData{id: id, graph: graph, chunks: chunks}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if res != nil {
			g.merge(res)
		}
	}

	g.loadTimeMs += time.Since(start).Milliseconds()
	g.initialized = true

	stats := g.Stats()
	logger.Info("[Index] Initialized",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"chunks", stats.Chunks,
		"collections", stats.Collections,
		"load_ms", g.loadTimeMs,
	)
	return nil
}

// merge writes one collection's records into the shared maps. Callers hold
// the init lock.
func (g *GraphIndex) merge(data *collectionData) {
	for _, entity := range data.graph.Entities {
		g.entities[entity.ID] = entity
		// Last writer wins on cross-collection name collisions.
		g.nameIndex[NormalizeName(entity.Name)] = entity.ID
	}
	for id, chunkIDs := range data.graph.Provenance {
		g.provenance[id] = chunkIDs
	}

	for _, edge := range data.graph.Edges {
		w := RelationshipWeight(edge.Type)
		g.addEdgePair(edge.Source, edge.Target, edge.Type, edge.Type, w)
	}

	for id, chunk := range data.chunks {
		g.chunks[id] = chunk
		g.entities[id] = common.Entity{
			ID:          id,
			Name:        chunkEntityName(chunk),
			Type:        chunkEntityType,
			Description: truncate(chunk.Content, chunkDescriptionLimit),
			Collection:  data.id,
		}
	}

	// Provenance links become first-class edges so traversal can reach
	// source text.
	provWeight := RelationshipWeight(provenanceRelation)
	for entityID, chunkIDs := range data.graph.Provenance {
		for _, chunkID := range chunkIDs {
			if _, ok := data.chunks[chunkID]; !ok {
				continue
			}
			g.addEdgePair(entityID, chunkID, provenanceRelation, reverseProvenanceRelation, provWeight)
		}
	}

	g.totalNodes += len(data.graph.Entities)
	g.totalEdges += len(data.graph.Edges)
	g.loadedCollections[data.id] = struct{}{}
	logger.Debug("[Index] Loaded collection",
		"collection", data.id,
		"nodes", len(data.graph.Entities),
		"edges", len(data.graph.Edges),
		"chunks", len(data.chunks),
	)
}

func (g *GraphIndex) addEdgePair(src, tgt, forwardType, reverseType string, weight float64) {
	g.adjacency[src] = append(g.adjacency[src], common.Edge{Target: tgt, Type: forwardType, Weight: weight})
	g.adjacency[tgt] = append(g.adjacency[tgt], common.Edge{Target: src, Type: reverseType, Weight: weight})
}

// NormalizeName uppercases and trims an entity name for case-insensitive
// lookup.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func chunkEntityName(chunk common.Chunk) string {
	return "CHUNK_" + strconv.Itoa(chunk.OrderIndex)
}

// GetNeighbors returns the adjacency entries for a node, or an empty slice
// for an unknown id. Never an error.
func (g *GraphIndex) GetNeighbors(id string) []common.Edge {
	return g.adjacency[id]
}

// GetEntity returns the entity with the given id.
func (g *GraphIndex) GetEntity(id string) (common.Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

// GetEntityByName looks an entity up by its normalized name.
func (g *GraphIndex) GetEntityByName(name string) (common.Entity, bool) {
	id, ok := g.nameIndex[NormalizeName(name)]
	if !ok {
		return common.Entity{}, false
	}
	return g.GetEntity(id)
}

// HasEntity reports whether the id is known to the index, either as an
// entity or as an adjacency endpoint.
func (g *GraphIndex) HasEntity(id string) bool {
	if _, ok := g.entities[id]; ok {
		return true
	}
	_, ok := g.adjacency[id]
	return ok
}

// GetChunk returns the chunk with the given id.
func (g *GraphIndex) GetChunk(id string) (common.Chunk, bool) {
	c, ok := g.chunks[id]
	return c, ok
}

// GetChunksForEntity returns the source chunks an entity was extracted
// from, via the provenance map rather than adjacency.
func (g *GraphIndex) GetChunksForEntity(id string) []common.Chunk {
	var chunks []common.Chunk
	for _, chunkID := range g.provenance[id] {
		if c, ok := g.chunks[chunkID]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// GetEntitiesForChunk returns the entities derived from a chunk. It is the
// inverse of GetChunksForEntity and costs O(degree): it scans the chunk's
// reverse-provenance edges and drops chunk-typed results.
func (g *GraphIndex) GetEntitiesForChunk(chunkID string) []common.Entity {
	var entities []common.Entity
	for _, edge := range g.GetNeighbors(chunkID) {
		if edge.Type != reverseProvenanceRelation {
			continue
		}
		if e, ok := g.entities[edge.Target]; ok && e.Type != chunkEntityType {
			entities = append(entities, e)
		}
	}
	return entities
}

// Stats returns index counts and load latency for observability. Counts
// cover authored graph content: provenance edges materialized from chunk
// links are not double counted.
func (g *GraphIndex) Stats() common.IndexStats {
	return common.IndexStats{
		Nodes:            g.totalNodes,
		Edges:            g.totalEdges,
		Chunks:           len(g.chunks),
		Collections:      len(g.loadedCollections),
		LoadTimeMs:       g.loadTimeMs,
		MemoryEstimateMB: g.estimateMemoryMB(),
	}
}

// Rough per-record sizes; chunks dominate because they carry full content.
func (g *GraphIndex) estimateMemoryMB() float64 {
	bytes := g.totalNodes*200 + g.totalEdges*50 + len(g.chunks)*1500
	return float64(bytes) / (1024 * 1024)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
