package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weftlabs/weft/pkg/common"
)

// Per-collection file names. These are fixed by the extraction pipeline that
// produces the data directories; changing them breaks existing corpora.
const (
	GraphFileName            = "graph_chunk_entity_relation.graphml"
	ChunkStoreFileName       = "kv_store_text_chunks.json"
	CommunityReportsFileName = "kv_store_community_reports.json"
)

// SourceSeparator joins chunk ids inside a node's source_id attribute.
const SourceSeparator = "<SEP>"

// DirectedEdge is one edge triple as authored in a graph file, before
// bidirectional materialization by the index.
type DirectedEdge struct {
	Source string
	Target string
	Type   string
}

// GraphData is the normalized result of parsing one collection's graph file.
type GraphData struct {
	Entities   []common.Entity
	Edges      []DirectedEdge
	Provenance map[string][]string // entity id -> source chunk ids
}

// Discover lists the collection ids under dataPath: every non-hidden
// subdirectory that contains a graph file, in sorted order.
func Discover(dataPath string) ([]string, error) {
	items, err := os.ReadDir(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data path %s: %w", dataPath, err)
	}

	var collections []string
	for _, item := range items {
		if !item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}
		graphFile := filepath.Join(dataPath, item.Name(), GraphFileName)
		if _, err := os.Stat(graphFile); err != nil {
			continue
		}
		collections = append(collections, item.Name())
	}
	sort.Strings(collections)
	return collections, nil
}

// CollectionPath returns the storage directory for a collection.
func CollectionPath(dataPath, collectionID string) string {
	return filepath.Join(dataPath, collectionID)
}

func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// truncate limits s to max runes without splitting multi-byte characters.
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
