// Package consensus extracts source-attributed claims and merges them into
// cross-source consensus claims with contradiction detection.
package consensus

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/prompts"
)

// Extractor pulls claim triples out of transcript text through the LLM
type Extractor struct {
	llm     interfaces.LLMService
	prompts *prompts.Manager
	logger  arbor.ILogger
}

// NewExtractor creates a claim extractor
func NewExtractor(llm interfaces.LLMService, promptManager *prompts.Manager, logger arbor.ILogger) *Extractor {
	return &Extractor{
		llm:     llm,
		prompts: promptManager,
		logger:  logger,
	}
}

// tripleRegex matches ("subject", "predicate", "object") lines in LLM output
var tripleRegex = regexp.MustCompile(`\("([^"]+)",\s*"([^"]+)",\s*"([^"]+)"\)`)

const extractionChunkChars = 2000

// Extract runs claim extraction over transcript text, processing it in
// roughly 2000-character sentence-aligned windows. Per-window LLM failures
// are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, transcriptText, sourceID string) ([]*models.Claim, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return nil, nil
	}

	template, err := e.prompts.Get(prompts.TemplateClaimExtraction)
	if err != nil {
		return nil, err
	}

	var claims []*models.Claim
	for i, window := range chunkBySentences(transcriptText, extractionChunkChars) {
		prompt := prompts.Render(template, map[string]string{
			"transcript_chunk": window,
		})

		response, err := e.llm.Chat(ctx, []interfaces.Message{
			{Role: "user", Content: prompt},
		})
		if err != nil {
			e.logger.Warn().Err(err).Int("window", i).Str("source_id", sourceID).Msg("Claim extraction window failed")
			continue
		}

		claims = append(claims, ParseTriples(response, sourceID)...)
	}
	return claims, nil
}

// ParseTriples parses ("subject", "predicate", "object") triples from LLM
// output into claims attributed to the given source, confidence 1.0.
func ParseTriples(llmResponse, sourceID string) []*models.Claim {
	matches := tripleRegex.FindAllStringSubmatch(llmResponse, -1)

	claims := make([]*models.Claim, 0, len(matches))
	for _, match := range matches {
		claims = append(claims, &models.Claim{
			ID:         common.NewClaimID(),
			SourceID:   sourceID,
			Subject:    strings.TrimSpace(match[1]),
			Predicate:  strings.TrimSpace(match[2]),
			Object:     strings.TrimSpace(match[3]),
			Confidence: 1.0,
			CreatedAt:  time.Now(),
		})
	}
	return claims
}

// FromExpansion converts an expanded chunk's claim triples into attributed
// claims, carrying the chunk's start timestamp for timed sources.
func FromExpansion(expanded *models.ExpandedChunk, chunk *models.Chunk) []*models.Claim {
	claims := make([]*models.Claim, 0, len(expanded.Claims))
	for _, triple := range expanded.Claims {
		confidence := triple.Confidence
		if confidence == 0 {
			confidence = 0.8
		}

		var timestampMs *int64
		if chunk != nil {
			timestampMs = chunk.StartMs
		}

		claims = append(claims, &models.Claim{
			ID:          common.NewClaimID(),
			SourceID:    expanded.SourceID,
			Subject:     strings.TrimSpace(triple.Subject),
			Predicate:   strings.TrimSpace(triple.Predicate),
			Object:      strings.TrimSpace(triple.Object),
			Confidence:  confidence,
			TimestampMs: timestampMs,
			CreatedAt:   time.Now(),
		})
	}
	return claims
}

// chunkBySentences packs sentences into windows under maxChars
func chunkBySentences(text string, maxChars int) []string {
	sentences := regexp.MustCompile(`[.!?]+\s+`).Split(text, -1)

	var windows []string
	current := ""
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if len(current)+len(sentence) < maxChars {
			current += sentence + ". "
		} else {
			if current != "" {
				windows = append(windows, strings.TrimSpace(current))
			}
			current = sentence + ". "
		}
	}
	if strings.TrimSpace(current) != "" {
		windows = append(windows, strings.TrimSpace(current))
	}
	return windows
}
