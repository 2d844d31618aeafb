package models

import (
	"time"
)

// Chunk is a semantically coherent span of transcript text, sized between the
// configured word bounds and linked to its neighbors in source order.
type Chunk struct {
	// Identity
	ID       string `json:"id"` // chunk_{sourceID}_{hex}
	SourceID string `json:"source_id"`
	Index    int    `json:"index"`

	// Content
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`

	// Timing span covered by the chunk, nil for untimed sources
	StartMs *int64 `json:"start_ms,omitempty"`
	EndMs   *int64 `json:"end_ms,omitempty"`

	// Derived quality signals
	TopicKeywords     []string `json:"topic_keywords"`
	CoherenceScore    float64  `json:"coherence_score"`
	CompletenessScore float64  `json:"completeness_score"`
	SemanticDensity   float64  `json:"semantic_density"`

	// Neighbor chain within the source, "" at the ends
	PreviousChunkID string `json:"previous_chunk_id,omitempty"`
	NextChunkID     string `json:"next_chunk_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ClaimTriple is a raw (subject, predicate, object) assertion extracted
// during chunk expansion, before it is attributed to a source.
type ClaimTriple struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

const (
	// DifficultyBeginner marks content readable without prior exposure
	DifficultyBeginner = "beginner"
	// DifficultyIntermediate is the default difficulty classification
	DifficultyIntermediate = "intermediate"
	// DifficultyAdvanced marks dense or high-reading-level content
	DifficultyAdvanced = "advanced"
)

// ExpandedChunk is the LLM-enriched form of a chunk. Degraded is true when
// the enrichment fell back to the chunk's own text after an LLM or parse
// failure; degraded chunks still flow through the rest of the pipeline.
type ExpandedChunk struct {
	// Identity
	ID       string `json:"id"`
	ChunkID  string `json:"chunk_id"`
	SourceID string `json:"source_id"`

	// Content
	OriginalText        string            `json:"original_text"`
	ExpandedExplanation string            `json:"expanded_explanation"`
	KeyConcepts         []string          `json:"key_concepts"`
	Definitions         map[string]string `json:"definitions"`
	Examples            []string          `json:"examples"`
	Prerequisites       []string          `json:"prerequisites"`
	Claims              []ClaimTriple     `json:"claims"`

	// Derived signals
	Difficulty    string  `json:"difficulty"` // beginner, intermediate, advanced
	CognitiveLoad float64 `json:"cognitive_load"`

	// Provenance
	Model      string `json:"model"`
	TokenCount int    `json:"token_count"`
	Degraded   bool   `json:"degraded"`

	CreatedAt time.Time `json:"created_at"`
}
