package common

// Entity represents a node in a collection's knowledge graph. An entity can
// be a concept, person, organization, or any other extracted notion. Chunk
// nodes are also represented as entities of type "CHUNK" so that traversal
// can reach source text like any other node.
//
// Entities are immutable once loaded.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Collection  string `json:"collection"`
}

// Chunk represents a segment of source text from a collection's chunk store.
// Chunks are the provenance anchors for entities: every extracted entity
// points back at one or more chunks.
type Chunk struct {
	ID                 string `json:"id"`
	Content            string `json:"content"`
	Tokens             int    `json:"tokens"`
	OrderIndex         int    `json:"order_index"`
	FullDocID          string `json:"full_doc_id"`
	Collection         string `json:"collection"`
	ContributionNumber *int   `json:"contribution_number,omitempty"`
	ContributionType   string `json:"contribution_type,omitempty"`
	Demographic        string `json:"demographic,omitempty"`
}

// Edge is a single adjacency entry: the neighbor reachable from some node,
// the relationship type, and the traversal weight derived from it.
//
// Edges are materialized in both directions at load time, so the index is
// undirected and the authored direction of a relationship is not recoverable
// from adjacency. Path output reports traversal direction only.
type Edge struct {
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// Community is one community report from a collection, used for keyword
// search over titles and summaries.
type Community struct {
	ID         string   `json:"community_id"`
	Collection string   `json:"collection"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Rating     float64  `json:"rating"`
	Nodes      []string `json:"nodes"`
	ChunkIDs   []string `json:"chunk_ids"`
}

// ExpandedEntity is an entity reached by weighted traversal, annotated with
// the cumulative weight of the best path that settled it.
type ExpandedEntity struct {
	Entity
	TraversalWeight float64 `json:"traversal_weight"`
}

// PathEdge records one traversal step actually used to reach a node during
// expansion, for explainability of results.
type PathEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Hop    int     `json:"hop"`
	Weight float64 `json:"weight"`
}

// IndexStats summarizes a loaded graph index for observability. An index
// that loaded nothing reports zero everywhere; callers use this to tell
// "nothing found" apart from "nothing loaded".
type IndexStats struct {
	Nodes            int     `json:"total_nodes"`
	Edges            int     `json:"total_edges"`
	Chunks           int     `json:"total_chunks"`
	Collections      int     `json:"loaded_collections"`
	LoadTimeMs       int64   `json:"load_time_ms"`
	MemoryEstimateMB float64 `json:"memory_estimate_mb"`
}
