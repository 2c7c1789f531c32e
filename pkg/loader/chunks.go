package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weftlabs/weft/pkg/common"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

type chunkRecord struct {
	Content            string `json:"content"`
	Tokens             int    `json:"tokens"`
	ChunkOrderIndex    int    `json:"chunk_order_index"`
	FullDocID          string `json:"full_doc_id"`
	ContributionNumber *int   `json:"contribution_number"`
	ContributionType   string `json:"contribution_type"`
	Demographic        string `json:"demographic"`
}

// LoadChunks parses a collection's chunk store file. A missing file yields
// an empty map; a malformed file is an error for the caller to log and skip.
//
// Chunk stores written by older pipelines omit the token count; those chunks
// are recounted with the tiktoken encoder.
func LoadChunks(collectionPath, collectionID string) (map[string]common.Chunk, error) {
	chunksPath := filepath.Join(collectionPath, ChunkStoreFileName)
	raw, err := os.ReadFile(chunksPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]common.Chunk{}, nil
		}
		return nil, fmt.Errorf("failed to read chunk store for %s: %w", collectionID, err)
	}

	var records map[string]chunkRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse chunk store for %s: %w", collectionID, err)
	}

	var encoder *tiktoken.Tiktoken
	chunks := make(map[string]common.Chunk, len(records))
	for id, rec := range records {
		tokens := rec.Tokens
		if tokens == 0 && rec.Content != "" {
			if encoder == nil {
				encoder, err = tiktoken.GetEncoding(tokenEncoding)
				if err != nil {
					return nil, fmt.Errorf("failed to load token encoder: %w", err)
				}
			}
			tokens = len(encoder.Encode(rec.Content, nil, nil))
		}

		chunks[id] = common.Chunk{
			ID:                 id,
			Content:            rec.Content,
			Tokens:             tokens,
			OrderIndex:         rec.ChunkOrderIndex,
			FullDocID:          rec.FullDocID,
			Collection:         collectionID,
			ContributionNumber: rec.ContributionNumber,
			ContributionType:   rec.ContributionType,
			Demographic:        rec.Demographic,
		}
	}

	return chunks, nil
}
