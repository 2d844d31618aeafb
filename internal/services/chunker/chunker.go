// Package chunker segments transcripts into semantically coherent chunks
// sized between configured word bounds.
package chunker

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

// Chunker splits transcripts into chunks. When an LLM service is provided
// and embedding mode is enabled, boundaries follow semantic similarity
// drops; otherwise word-count heuristics apply.
type Chunker struct {
	config *common.ChunkingConfig
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewChunker creates a chunker. llm may be nil to force heuristic boundaries.
func NewChunker(config *common.ChunkingConfig, llm interfaces.LLMService, logger arbor.ILogger) *Chunker {
	return &Chunker{
		config: config,
		llm:    llm,
		logger: logger,
	}
}

// Chunk segments a transcript. Transcripts under 50 characters yield no
// chunks. Undersized non-final chunks are dropped, oversized ones split by
// greedy sentence packing, and the result is linked into a neighbor chain.
func (c *Chunker) Chunk(ctx context.Context, transcript *models.Transcript) []*models.Chunk {
	fullText := transcript.FullText()
	if len(strings.TrimSpace(fullText)) < 50 {
		return nil
	}

	sentences := textutil.SplitSentences(fullText)
	if len(sentences) == 0 {
		return nil
	}

	var boundaries []int
	if c.config.UseEmbeddings && c.llm != nil {
		boundaries = c.embeddingBoundaries(ctx, sentences)
	} else {
		boundaries = c.heuristicBoundaries(sentences, transcript.SourceType)
	}

	var chunks []*models.Chunk
	for i, boundary := range boundaries {
		startIdx := boundary
		endIdx := len(sentences)
		if i+1 < len(boundaries) {
			endIdx = boundaries[i+1]
		}

		chunkText := strings.Join(sentences[startIdx:endIdx], " ")
		wordCount := textutil.WordCount(chunkText)

		// Skip undersized chunks unless final
		if wordCount < c.config.MinWords && i < len(boundaries)-1 {
			continue
		}

		if wordCount > c.config.MaxWords {
			for _, subText := range c.splitLargeChunk(chunkText) {
				chunks = append(chunks, c.buildChunk(transcript, subText, len(chunks)))
			}
		} else {
			chunks = append(chunks, c.buildChunk(transcript, chunkText, len(chunks)))
		}
	}

	linkChunks(chunks)

	c.logger.Debug().
		Str("source_id", transcript.SourceID).
		Int("sentences", len(sentences)).
		Int("chunks", len(chunks)).
		Msg("Chunked transcript")

	return chunks
}

// embeddingBoundaries cuts where consecutive-sentence similarity drops below
// the threshold once the minimum size is reached, or the maximum is hit.
func (c *Chunker) embeddingBoundaries(ctx context.Context, sentences []string) []int {
	if len(sentences) <= 1 {
		return []int{0}
	}

	embeddings := make([][]float32, len(sentences))
	for i, sentence := range sentences {
		emb, err := c.llm.Embed(ctx, sentence)
		if err != nil {
			c.logger.Warn().Err(err).Int("sentence", i).Msg("Embedding failed, using fallback")
			emb = textutil.FallbackEmbedding(sentence)
		}
		embeddings[i] = emb
	}

	similarities := make([]float64, len(embeddings)-1)
	for i := 0; i < len(embeddings)-1; i++ {
		similarities[i] = textutil.CosineSimilarity(embeddings[i], embeddings[i+1])
	}

	boundaries := []int{0}
	currentWords := 0
	for i, sim := range similarities {
		currentWords += textutil.WordCount(sentences[i])

		if currentWords >= c.config.MinWords {
			if sim < c.config.SimilarityThreshold {
				boundaries = append(boundaries, i+1)
				currentWords = 0
			} else if currentWords >= c.config.MaxWords {
				boundaries = append(boundaries, i+1)
				currentWords = 0
			}
		}
	}
	return boundaries
}

// heuristicBoundaries cuts at max words, or at target words for articles
// where segment breaks approximate paragraph breaks.
func (c *Chunker) heuristicBoundaries(sentences []string, sourceType string) []int {
	boundaries := []int{0}
	currentWords := 0

	for i, sentence := range sentences {
		currentWords += textutil.WordCount(sentence)

		if currentWords >= c.config.MaxWords {
			boundaries = append(boundaries, i+1)
			currentWords = 0
		} else if sourceType == models.SourceTypeArticle && i > 0 && currentWords >= c.config.TargetWords {
			boundaries = append(boundaries, i+1)
			currentWords = 0
		}
	}
	return boundaries
}

// splitLargeChunk packs sentences greedily into sub-chunks under the max size
func (c *Chunker) splitLargeChunk(chunkText string) []string {
	sentences := textutil.SplitSentences(chunkText)

	var subChunks []string
	var current []string
	currentWords := 0

	for _, sentence := range sentences {
		wordCount := textutil.WordCount(sentence)
		if currentWords+wordCount > c.config.MaxWords && len(current) > 0 {
			subChunks = append(subChunks, strings.Join(current, " "))
			current = []string{sentence}
			currentWords = wordCount
		} else {
			current = append(current, sentence)
			currentWords += wordCount
		}
	}
	if len(current) > 0 {
		subChunks = append(subChunks, strings.Join(current, " "))
	}
	return subChunks
}

func (c *Chunker) buildChunk(transcript *models.Transcript, chunkText string, index int) *models.Chunk {
	cleanText := textutil.CleanText(chunkText)

	var startMs, endMs *int64
	if len(transcript.Segments) > 0 {
		startMs = transcript.Segments[0].StartMs
		endMs = transcript.Segments[len(transcript.Segments)-1].EndMs
	}

	keywords := textutil.TechnicalTerms(chunkText)
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}

	return &models.Chunk{
		ID:                common.NewChunkID(transcript.SourceID),
		SourceID:          transcript.SourceID,
		Index:             index,
		Text:              cleanText,
		WordCount:         textutil.WordCount(chunkText),
		StartMs:           startMs,
		EndMs:             endMs,
		TopicKeywords:     keywords,
		CoherenceScore:    c.CoherenceScore(cleanText),
		CompletenessScore: c.CompletenessScore(chunkText),
		SemanticDensity:   c.SemanticDensity(chunkText),
		CreatedAt:         time.Now(),
	}
}

func linkChunks(chunks []*models.Chunk) {
	for i := range chunks {
		chunks[i].Index = i
		if i > 0 {
			chunks[i].PreviousChunkID = chunks[i-1].ID
		} else {
			chunks[i].PreviousChunkID = ""
		}
		if i < len(chunks)-1 {
			chunks[i].NextChunkID = chunks[i+1].ID
		} else {
			chunks[i].NextChunkID = ""
		}
	}
}
