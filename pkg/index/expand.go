package index

import (
	"container/heap"
	"sort"

	"github.com/weftlabs/weft/pkg/common"
)

// DefaultMaxResults bounds expansion when the caller passes no limit.
const DefaultMaxResults = 200

// ExpandParams configures one weighted multi-hop expansion.
type ExpandParams struct {
	// Seeds are the starting node ids. Unknown seeds are ignored.
	Seeds []string
	// MaxHops bounds traversal depth. Zero returns only the seeds.
	MaxHops int
	// MaxResults caps the number of settled nodes; <= 0 uses
	// DefaultMaxResults.
	MaxResults int
	// Collections, when non-empty, restricts expansion to nodes from
	// these collections. Seeds are exempt.
	Collections []string
	// IncludeChunks controls whether chunk nodes may be reached.
	IncludeChunks bool
}

type queueItem struct {
	weight float64
	depth  int
	seq    uint64 // insertion order, breaks weight ties deterministically
	id     string
	from   *pathOrigin
}

type pathOrigin struct {
	source  string
	relType string
	weight  float64
}

// expandQueue orders items by descending cumulative weight; ties fall back
// to insertion order so the rest of the item never needs to be comparable.
type expandQueue []*queueItem

func (q expandQueue) Len() int { return len(q) }

func (q expandQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight > q[j].weight
	}
	return q[i].seq < q[j].seq
}

func (q expandQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *expandQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *expandQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// ExpandWeighted performs best-first multi-hop expansion from the seed
// nodes. Each step accumulates the edge's relationship weight plus a bonus
// for the target's entity type, and the node is settled with the weight of
// the first (heaviest) path that reaches it; weights only grow along a
// path, so a settled weight is final.
//
// The returned entities are sorted by traversal weight descending. The
// second result lists the path edges actually used to reach each settled
// node, for explainability. Seeds settle at weight zero with no path.
func (g *GraphIndex) ExpandWeighted(params ExpandParams) ([]common.ExpandedEntity, []common.PathEdge) {
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var collectionFilter map[string]struct{}
	if len(params.Collections) > 0 {
		collectionFilter = make(map[string]struct{}, len(params.Collections))
		for _, c := range params.Collections {
			collectionFilter[c] = struct{}{}
		}
	}

	queue := &expandQueue{}
	heap.Init(queue)

	visited := make(map[string]float64)
	var paths []common.PathEdge
	var seq uint64

	for _, seed := range params.Seeds {
		if !g.HasEntity(seed) {
			continue
		}
		heap.Push(queue, &queueItem{weight: 0, depth: 0, seq: seq, id: seed})
		seq++
	}

	for queue.Len() > 0 && len(visited) < maxResults {
		item := heap.Pop(queue).(*queueItem)

		// First-settled wins.
		if _, settled := visited[item.id]; settled {
			continue
		}
		visited[item.id] = item.weight

		if item.from != nil {
			paths = append(paths, common.PathEdge{
				Source: item.from.source,
				Target: item.id,
				Type:   item.from.relType,
				Hop:    item.depth,
				Weight: item.from.weight,
			})
		}

		if item.depth >= params.MaxHops {
			continue
		}

		for _, edge := range g.GetNeighbors(item.id) {
			if _, settled := visited[edge.Target]; settled {
				continue
			}

			target, known := g.entities[edge.Target]
			if known {
				if !params.IncludeChunks && target.Type == chunkEntityType {
					continue
				}
				if collectionFilter != nil {
					if _, ok := collectionFilter[target.Collection]; !ok {
						continue
					}
				}
			}

			bonus := 0.0
			if known {
				bonus = entityTypeBonus(target.Type)
			}

			heap.Push(queue, &queueItem{
				weight: item.weight + edge.Weight + bonus,
				depth:  item.depth + 1,
				seq:    seq,
				id:     edge.Target,
				from:   &pathOrigin{source: item.id, relType: edge.Type, weight: edge.Weight},
			})
			seq++
		}
	}

	entities := make([]common.ExpandedEntity, 0, len(visited))
	for id, weight := range visited {
		if meta, ok := g.entities[id]; ok {
			entities = append(entities, common.ExpandedEntity{Entity: meta, TraversalWeight: weight})
		}
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].TraversalWeight != entities[j].TraversalWeight {
			return entities[i].TraversalWeight > entities[j].TraversalWeight
		}
		return entities[i].ID < entities[j].ID
	})

	return entities, paths
}
