package chunker

import (
	"fmt"

	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

// Repair improves low-quality chunks: chunks below the coherence or
// completeness threshold or under the minimum size are merged forward when
// the merge stays within the maximum; oversized chunks are split. Scores are
// recomputed for affected chunks and the neighbor chain relinked.
func (c *Chunker) Repair(chunks []*models.Chunk) []*models.Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	var improved []*models.Chunk
	i := 0

	for i < len(chunks) {
		chunk := chunks[i]

		needsMerge := chunk.CoherenceScore < c.config.CoherenceThreshold ||
			chunk.CompletenessScore < c.config.CompletenessThreshold ||
			chunk.WordCount < c.config.MinWords

		if needsMerge && i < len(chunks)-1 {
			next := chunks[i+1]
			mergedText := chunk.Text + " " + next.Text
			mergedWords := textutil.WordCount(mergedText)

			if mergedWords <= c.config.MaxWords {
				chunk.Text = mergedText
				chunk.WordCount = mergedWords
				chunk.EndMs = next.EndMs
				chunk.NextChunkID = next.NextChunkID

				chunk.CoherenceScore = c.CoherenceScore(mergedText)
				chunk.CompletenessScore = c.CompletenessScore(mergedText)
				chunk.SemanticDensity = c.SemanticDensity(mergedText)

				improved = append(improved, chunk)
				i += 2 // Next chunk is consumed by the merge
				continue
			}
		}

		if chunk.WordCount > c.config.MaxWords {
			for j, subText := range c.splitLargeChunk(chunk.Text) {
				keywords := textutil.TechnicalTerms(subText)
				if len(keywords) > 10 {
					keywords = keywords[:10]
				}
				improved = append(improved, &models.Chunk{
					ID:                fmt.Sprintf("%s_sub%d", chunk.ID, j),
					SourceID:          chunk.SourceID,
					Index:             chunk.Index + j,
					Text:              subText,
					WordCount:         textutil.WordCount(subText),
					StartMs:           chunk.StartMs,
					EndMs:             chunk.EndMs,
					TopicKeywords:     keywords,
					CoherenceScore:    c.CoherenceScore(subText),
					CompletenessScore: c.CompletenessScore(subText),
					SemanticDensity:   c.SemanticDensity(subText),
					CreatedAt:         chunk.CreatedAt,
				})
			}
			i++
		} else {
			improved = append(improved, chunk)
			i++
		}
	}

	linkChunks(improved)
	return improved
}
