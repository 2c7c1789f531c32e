package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weftlabs/weft/pkg/common"
	"github.com/weftlabs/weft/pkg/logger"

	"github.com/kaptinlin/jsonrepair"
)

// MinCommunityRating is the quality floor: reports rated below it are
// dropped at load time.
const MinCommunityRating = 4.0

type communityRecord struct {
	ReportJSON struct {
		Title   string  `json:"title"`
		Summary string  `json:"summary"`
		Rating  float64 `json:"rating"`
	} `json:"report_json"`
	Nodes    []string `json:"nodes"`
	ChunkIDs []string `json:"chunk_ids"`
}

// LoadCommunities parses a collection's community report file, keeping only
// reports with a non-empty report body rated at or above MinCommunityRating.
//
// Community reports are model-generated JSON and occasionally arrive
// slightly malformed; a failed parse goes through jsonrepair before the
// collection is given up on.
func LoadCommunities(collectionPath, collectionID string) ([]common.Community, error) {
	reportsPath := filepath.Join(collectionPath, CommunityReportsFileName)
	raw, err := os.ReadFile(reportsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read community reports for %s: %w", collectionID, err)
	}

	var records map[string]communityRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(raw))
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse community reports for %s: %w", collectionID, err)
		}
		if err := json.Unmarshal([]byte(repaired), &records); err != nil {
			return nil, fmt.Errorf("failed to parse community reports for %s after repair: %w", collectionID, err)
		}
		logger.Warn("[Loader] Repaired malformed community reports", "collection", collectionID)
	}

	var communities []common.Community
	for id, rec := range records {
		if rec.ReportJSON.Title == "" && rec.ReportJSON.Summary == "" {
			continue
		}
		if rec.ReportJSON.Rating < MinCommunityRating {
			continue
		}
		communities = append(communities, common.Community{
			ID:         id,
			Collection: collectionID,
			Title:      rec.ReportJSON.Title,
			Summary:    rec.ReportJSON.Summary,
			Rating:     rec.ReportJSON.Rating,
			Nodes:      rec.Nodes,
			ChunkIDs:   rec.ChunkIDs,
		})
	}

	return communities, nil
}
