package retrieval

import "github.com/studiumlab/tutor-backend/internal/entity"

// mergeRetrievedChunks combines the direct and hypothetical-answer retrieval
// results into one deduplicated list of property bags. For duplicate IDs the
// hypothetical-path copy wins, but the chunk keeps its first-seen position.
func mergeRetrievedChunks(direct, hyde []entity.RetrievalChunk) []entity.PassageProperties {
	position := make(map[string]int, len(direct)+len(hyde))
	merged := make([]entity.PassageProperties, 0, len(direct)+len(hyde))

	for _, chunk := range direct {
		if i, seen := position[chunk.ID]; seen {
			merged[i] = chunk.Properties
			continue
		}
		position[chunk.ID] = len(merged)
		merged = append(merged, chunk.Properties)
	}

	for _, chunk := range hyde {
		if i, seen := position[chunk.ID]; seen {
			merged[i] = chunk.Properties
			continue
		}
		position[chunk.ID] = len(merged)
		merged = append(merged, chunk.Properties)
	}

	return merged
}
