// Package expander enriches chunks with LLM-generated explanations,
// concepts, definitions, and factual claims.
package expander

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/prompts"
	"github.com/ternarybob/cursana/internal/services/textutil"
	"github.com/ternarybob/cursana/internal/services/workers"
)

const defaultTopic = "educational content"

// Expander expands chunks through an LLM. Expansion never fails a chunk:
// any LLM or parse error produces a degraded expansion built from the
// chunk's own content.
type Expander struct {
	config  *common.ExpansionConfig
	llm     interfaces.LLMService
	prompts *prompts.Manager
	logger  arbor.ILogger
}

// NewExpander creates a chunk expander
func NewExpander(config *common.ExpansionConfig, llm interfaces.LLMService, promptManager *prompts.Manager, logger arbor.ILogger) *Expander {
	return &Expander{
		config:  config,
		llm:     llm,
		prompts: promptManager,
		logger:  logger,
	}
}

// expansionPayload is the JSON shape requested from the LLM
type expansionPayload struct {
	ExpandedExplanation string               `json:"expanded_explanation"`
	KeyConcepts         []string             `json:"key_concepts"`
	Definitions         map[string]string    `json:"definitions"`
	Examples            []string             `json:"examples"`
	Prerequisites       []string             `json:"prerequisites"`
	Claims              []models.ClaimTriple `json:"claims"`
}

// Expand enriches a single chunk. prev provides up to the configured number
// of characters of preceding-chunk context and may be nil; topic defaults
// to "educational content" when empty.
func (e *Expander) Expand(ctx context.Context, chunk *models.Chunk, prev *models.Chunk, topic string) *models.ExpandedChunk {
	if topic == "" {
		topic = defaultTopic
	}

	previousContext := "None"
	if prev != nil && prev.Text != "" {
		limit := e.config.ContextChars
		if limit <= 0 {
			limit = 500
		}
		previousContext = prev.Text
		if len(previousContext) > limit {
			previousContext = previousContext[:limit]
		}
	}

	template, err := e.prompts.Get(prompts.TemplateChunkExpansion)
	if err != nil {
		e.logger.Warn().Err(err).Str("chunk_id", chunk.ID).Msg("Failed to load expansion template")
		return e.degradedExpansion(chunk)
	}

	prompt := prompts.Render(template, map[string]string{
		"chunk_text":       chunk.Text,
		"topic":            topic,
		"previous_context": previousContext,
	})

	response, err := e.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("chunk_id", chunk.ID).Msg("Chunk expansion failed, using degraded expansion")
		return e.degradedExpansion(chunk)
	}

	payload := parseExpansionResponse(response)
	if payload.ExpandedExplanation == "" {
		payload.ExpandedExplanation = chunk.Text
	}

	terminology := make([]string, 0, len(payload.Definitions))
	for term := range payload.Definitions {
		terminology = append(terminology, term)
	}

	expanded := &models.ExpandedChunk{
		ID:                  common.NewExpansionID(),
		ChunkID:             chunk.ID,
		SourceID:            chunk.SourceID,
		OriginalText:        chunk.Text,
		ExpandedExplanation: payload.ExpandedExplanation,
		KeyConcepts:         emptyIfNil(payload.KeyConcepts),
		Definitions:         emptyMapIfNil(payload.Definitions),
		Examples:            emptyIfNil(payload.Examples),
		Prerequisites:       emptyIfNil(payload.Prerequisites),
		Claims:              payload.Claims,
		Difficulty:          DifficultyLevel(payload.ExpandedExplanation, terminology),
		CognitiveLoad:       cognitiveLoad(payload, payload.ExpandedExplanation),
		Model:               e.llm.ModelName(),
		TokenCount:          len(strings.Fields(response)),
		CreatedAt:           time.Now(),
	}
	return expanded
}

// ExpandBatch expands chunks preserving input order. Each chunk receives the
// preceding input chunk as context; members run on the worker pool with
// per-chunk failure isolation.
func (e *Expander) ExpandBatch(ctx context.Context, chunks []*models.Chunk, topic string) []*models.ExpandedChunk {
	if len(chunks) == 0 {
		return nil
	}

	results := make([]*models.ExpandedChunk, len(chunks))

	pool := workers.NewPool(e.config.Concurrency, e.logger)
	pool.Start()

	for i := range chunks {
		idx := i
		var prev *models.Chunk
		if idx > 0 {
			prev = chunks[idx-1]
		}
		chunk := chunks[idx]

		err := pool.Submit(func(_ context.Context) error {
			results[idx] = e.Expand(ctx, chunk, prev, topic)
			return nil
		})
		if err != nil {
			e.logger.Warn().Err(err).Str("chunk_id", chunk.ID).Msg("Expansion job rejected, using original text")
			results[idx] = e.degradedExpansion(chunk)
		}
	}
	pool.Wait()

	// Every slot must hold an expansion before results reach assembly
	for i, result := range results {
		if result == nil {
			results[i] = e.degradedExpansion(chunks[i])
		}
	}

	return results
}

// degradedExpansion builds the fallback expansion from the chunk itself
func (e *Expander) degradedExpansion(chunk *models.Chunk) *models.ExpandedChunk {
	keyConcepts := chunk.TopicKeywords
	if len(keyConcepts) > 5 {
		keyConcepts = keyConcepts[:5]
	}

	return &models.ExpandedChunk{
		ID:                  common.NewExpansionID(),
		ChunkID:             chunk.ID,
		SourceID:            chunk.SourceID,
		OriginalText:        chunk.Text,
		ExpandedExplanation: chunk.Text,
		KeyConcepts:         emptyIfNil(keyConcepts),
		Definitions:         map[string]string{},
		Examples:            []string{},
		Prerequisites:       []string{},
		Claims:              nil,
		Difficulty:          models.DifficultyIntermediate,
		CognitiveLoad:       0.5,
		Model:               e.llm.ModelName(),
		Degraded:            true,
		CreatedAt:           time.Now(),
	}
}

// parseExpansionResponse extracts the first {...} JSON block; when no valid
// JSON is present the first 1000 characters become the explanation.
func parseExpansionResponse(response string) expansionPayload {
	cleaned := cleanMarkdownFences(response)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		var payload expansionPayload
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err == nil {
			return payload
		}
	}

	text := response
	if len(text) > 1000 {
		text = text[:1000]
	}
	return expansionPayload{
		ExpandedExplanation: text,
		KeyConcepts:         []string{},
		Definitions:         map[string]string{},
		Examples:            []string{},
		Prerequisites:       []string{},
	}
}

// cleanMarkdownFences strips ```json ... ``` wrappers LLMs add around JSON
func cleanMarkdownFences(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

// DifficultyLevel classifies text difficulty from readability and the
// density of defined terminology per 100 words.
func DifficultyLevel(text string, terminology []string) string {
	fkGrade := textutil.FleschKincaidGrade(text)

	denom := float64(len(strings.Fields(text))) / 100
	if denom < 1 {
		denom = 1
	}
	termDensity := float64(len(terminology)) / denom

	switch {
	case fkGrade < 10 && termDensity < 0.1:
		return models.DifficultyBeginner
	case fkGrade > 15 || termDensity > 0.3:
		return models.DifficultyAdvanced
	default:
		return models.DifficultyIntermediate
	}
}

// CognitiveLoad estimates mental effort to process an expansion, in [0, 1]:
// concept count, definition density, prerequisite count, and average
// sentence length each contribute a capped component.
func cognitiveLoad(payload expansionPayload, expandedText string) float64 {
	load := 0.0

	load += capAt(float64(len(payload.KeyConcepts))*0.05, 0.4)

	wordCount := float64(len(strings.Fields(expandedText)))
	denom := wordCount / 100
	if denom < 1 {
		denom = 1
	}
	load += capAt(float64(len(payload.Definitions))/denom*0.5, 0.3)

	load += capAt(float64(len(payload.Prerequisites))*0.05, 0.2)

	sentences := strings.Split(expandedText, ".")
	if len(sentences) > 0 {
		totalWords := 0
		for _, sentence := range sentences {
			totalWords += len(strings.Fields(sentence))
		}
		avgWords := float64(totalWords) / float64(len(sentences))
		load += capAt((avgWords-15)/100, 0.1)
	}

	if load < 0 {
		return 0
	}
	if load > 1 {
		return 1
	}
	return load
}

func capAt(value, limit float64) float64 {
	if value > limit {
		return limit
	}
	return value
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyMapIfNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
