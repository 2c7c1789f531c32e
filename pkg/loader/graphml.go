package loader

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/logger"
)

const (
	entityDescriptionLimit = 300
	defaultEntityType      = "UNKNOWN"
	fallbackRelationType   = "RELATED_TO"
)

type graphmlFile struct {
	Keys  []graphmlKey `xml:"key"`
	Graph struct {
		Nodes []graphmlNode `xml:"node"`
		Edges []graphmlEdge `xml:"edge"`
	} `xml:"graph"`
}

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	AttrName string `xml:"attr.name,attr"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// LoadGraph parses a collection's graph file into normalized entities,
// directed edge triples, and entity-to-chunk provenance.
//
// A missing graph file is not an error: the collection simply contributes
// nothing and loading continues elsewhere. A malformed file is an error the
// caller is expected to log and skip.
func LoadGraph(collectionPath, collectionID string) (GraphData, error) {
	data := GraphData{Provenance: make(map[string][]string)}

	graphPath := filepath.Join(collectionPath, GraphFileName)
	raw, err := os.ReadFile(graphPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("[Loader] Graph file not found", "collection", collectionID)
			return data, nil
		}
		return data, fmt.Errorf("failed to read graph file for %s: %w", collectionID, err)
	}

	var doc graphmlFile
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return data, fmt.Errorf("failed to parse graph file for %s: %w", collectionID, err)
	}

	keyNames := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		keyNames[k.ID] = k.AttrName
	}

	getData := func(entries []graphmlData, name string) string {
		for _, d := range entries {
			if keyNames[d.Key] == name {
				return stripQuotes(d.Value)
			}
		}
		return ""
	}

	for _, node := range doc.Graph.Nodes {
		id := stripQuotes(node.ID)
		if id == "" {
			continue
		}

		name := getData(node.Data, "entity_name")
		if name == "" {
			name = id
		}
		entityType := getData(node.Data, "entity_type")
		if entityType == "" {
			entityType = defaultEntityType
		}

		data.Entities = append(data.Entities, common.Entity{
			ID:          id,
			Name:        name,
			Type:        entityType,
			Description: truncate(getData(node.Data, "description"), entityDescriptionLimit),
			Collection:  collectionID,
		})

		if sourceRaw := getData(node.Data, "source_id"); sourceRaw != "" {
			var chunkIDs []string
			for _, part := range strings.Split(sourceRaw, SourceSeparator) {
				if part = strings.TrimSpace(part); part != "" {
					chunkIDs = append(chunkIDs, part)
				}
			}
			if len(chunkIDs) > 0 {
				data.Provenance[id] = chunkIDs
			}
		}
	}

	for _, edge := range doc.Graph.Edges {
		src := stripQuotes(edge.Source)
		tgt := stripQuotes(edge.Target)
		if src == "" || tgt == "" {
			continue
		}

		relType := getData(edge.Data, "type")
		if relType == "" {
			relType = getData(edge.Data, "relationship_type")
		}
		if relType == "" {
			relType = getData(edge.Data, "label")
		}
		if relType == "" {
			relType = fallbackRelationType
		}

		data.Edges = append(data.Edges, DirectedEdge{Source: src, Target: tgt, Type: relType})
	}

	return data, nil
}
