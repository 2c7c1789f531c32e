package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/loader"
	"github.com/weftlabs/weft/pkg/logger"
)

// Scores for a keyword appearing in a community's title versus only in its
// summary. Title matches dominate.
const (
	titleScore   = 3.0
	summaryScore = 1.0
)

// Stop words stripped before indexing and from queries. The corpus is
// French; three-letter-minimum tokenization already drops most short
// function words in other languages.
var stopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "de": {}, "du": {}, "des": {}, "un": {},
	"une": {}, "et": {}, "ou": {}, "que": {}, "qui": {}, "dans": {},
	"pour": {}, "sur": {}, "avec": {}, "par": {}, "est": {}, "sont": {},
	"ce": {}, "cette": {}, "ces": {}, "au": {}, "aux": {}, "en": {},
	"il": {}, "elle": {}, "nous": {}, "vous": {},
}

// Word characters incl. accented letters; tokens shorter than three runes
// are ignored.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

type posting struct {
	collection string
	community  string
	score      float64
}

// Result is one community matched by a keyword search.
type Result struct {
	common.Community
	Score float64 `json:"score"`
}

// KeywordIndex is an inverted index over community titles and summaries,
// independent of the graph index. It is refreshed wholesale: Refresh builds
// fresh maps offline and swaps them in atomically, so readers never observe
// a partially built index.
type KeywordIndex struct {
	dataPath string

	mu          sync.RWMutex
	postings    map[string][]posting
	communities map[string]map[string]common.Community // collection -> community id

	loadTimeMs  int64
	lastRefresh time.Time
}

// NewKeywordIndex creates an empty index over the given data path.
func NewKeywordIndex(dataPath string) *KeywordIndex {
	return &KeywordIndex{
		dataPath:    dataPath,
		postings:    make(map[string][]posting),
		communities: make(map[string]map[string]common.Community),
	}
}

// Refresh rebuilds the whole index from the community reports of every
// discovered collection. Collections that fail to load are logged and
// skipped; the refresh itself only fails when the data path is unreadable.
func (k *KeywordIndex) Refresh() error {
	start := time.Now()

	collections, err := loader.Discover(k.dataPath)
	if err != nil {
		return err
	}

	postings := make(map[string][]posting)
	byCollection := make(map[string]map[string]common.Community)
	total := 0

	for _, collectionID := range collections {
		path := loader.CollectionPath(k.dataPath, collectionID)
		communities, err := loader.LoadCommunities(path, collectionID)
		if err != nil {
			logger.Warn("[Search] Skipping community reports", "collection", collectionID, "err", err)
			continue
		}
		if len(communities) == 0 {
			continue
		}

		byCollection[collectionID] = make(map[string]common.Community, len(communities))
		for _, community := range communities {
			byCollection[collectionID][community.ID] = community
			total++

			title := strings.ToLower(community.Title)
			summary := strings.ToLower(community.Summary)

			for keyword := range tokenize(title + " " + summary) {
				score := 0.0
				if strings.Contains(title, keyword) {
					score += titleScore
				}
				if strings.Contains(summary, keyword) {
					score += summaryScore
				}
				if score > 0 {
					postings[keyword] = append(postings[keyword], posting{
						collection: collectionID,
						community:  community.ID,
						score:      score,
					})
				}
			}
		}
	}

	k.mu.Lock()
	k.postings = postings
	k.communities = byCollection
	k.loadTimeMs = time.Since(start).Milliseconds()
	k.lastRefresh = time.Now()
	k.mu.Unlock()

	logger.Info("[Search] Keyword index refreshed",
		"communities", total,
		"keywords", len(postings),
		"collections", len(byCollection),
		"load_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Search matches the query's keywords against the index and returns the
// top-scoring communities. Per-keyword scores accumulate per community.
//
// maxCollections caps result spread: once that many distinct collections
// are represented, further results from collections already present are
// skipped so a single verbose collection cannot crowd out the rest.
func (k *KeywordIndex) Search(query string, maxResults, maxCollections int) []Result {
	if maxResults <= 0 {
		maxResults = 15
	}
	if maxCollections <= 0 {
		maxCollections = 50
	}

	keywords := tokenize(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	type communityKey struct {
		collection string
		community  string
	}
	scores := make(map[communityKey]float64)
	for keyword := range keywords {
		for _, p := range k.postings[keyword] {
			scores[communityKey{p.collection, p.community}] += p.score
		}
	}

	type match struct {
		key   communityKey
		score float64
	}
	matches := make([]match, 0, len(scores))
	for key, score := range scores {
		matches = append(matches, match{key, score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].key.collection != matches[j].key.collection {
			return matches[i].key.collection < matches[j].key.collection
		}
		return matches[i].key.community < matches[j].key.community
	})

	var results []Result
	seenCollections := make(map[string]struct{})

	for _, m := range matches {
		if len(results) >= maxResults {
			break
		}
		if _, seen := seenCollections[m.key.collection]; seen && len(seenCollections) >= maxCollections {
			continue
		}
		community, ok := k.communities[m.key.collection][m.key.community]
		if !ok {
			continue
		}
		results = append(results, Result{Community: community, Score: m.score})
		seenCollections[m.key.collection] = struct{}{}
	}

	return results
}

// Stats reports index size and refresh timing for observability.
type Stats struct {
	Communities int   `json:"total_communities"`
	Collections int   `json:"total_collections"`
	Keywords    int   `json:"total_keywords"`
	LoadTimeMs  int64 `json:"load_time_ms"`
	LastRefresh int64 `json:"last_refresh"`
}

// Stats returns a snapshot of index counters.
func (k *KeywordIndex) Stats() Stats {
	k.mu.RLock()
	defer k.mu.RUnlock()

	total := 0
	for _, communities := range k.communities {
		total += len(communities)
	}
	return Stats{
		Communities: total,
		Collections: len(k.communities),
		Keywords:    len(k.postings),
		LoadTimeMs:  k.loadTimeMs,
		LastRefresh: k.lastRefresh.Unix(),
	}
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(text, -1) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}
