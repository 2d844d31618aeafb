package chunker

import (
	"strings"

	"github.com/ternarybob/cursana/internal/services/textutil"
)

var transitionWords = map[string]struct{}{
	"however": {}, "therefore": {}, "furthermore": {}, "moreover": {},
	"additionally": {}, "also": {}, "next": {}, "then": {},
}

// CoherenceScore measures chunk connectivity: 0.3 weight on transition-word
// usage per sentence plus 0.7 on technical-term repetition. Chunks with
// fewer than two sentences score a flat 0.8.
func (c *Chunker) CoherenceScore(chunkText string) float64 {
	sentences := textutil.SplitSentences(chunkText)
	if len(sentences) < 2 {
		return 0.8
	}

	words := strings.Fields(strings.ToLower(chunkText))
	transitionCount := 0
	for _, word := range words {
		if _, ok := transitionWords[word]; ok {
			transitionCount++
		}
	}

	transitionScore := float64(transitionCount) / float64(len(sentences))
	if transitionScore > 1.0 {
		transitionScore = 1.0
	}

	uniqueTerms := len(textutil.TechnicalTerms(chunkText))
	denom := len(words) / 20
	if denom < 5 {
		denom = 5
	}
	repetitionScore := float64(uniqueTerms) / float64(denom)
	if repetitionScore > 1.0 {
		repetitionScore = 1.0
	}

	coherence := transitionScore*0.3 + repetitionScore*0.7
	if coherence > 1.0 {
		return 1.0
	}
	return coherence
}

// CompletenessScore is the fraction of sentences ending in terminal
// punctuation, scaled by 0.7 when the chunk is under the minimum size.
func (c *Chunker) CompletenessScore(text string) float64 {
	sentences := textutil.SplitSentences(text)
	if len(sentences) == 0 {
		return 0.0
	}

	// The splitter consumes interior terminal punctuation, so in practice
	// only a trailing sentence that keeps its punctuation counts here.
	properEndings := 0
	for _, sentence := range sentences {
		if strings.ContainsAny(sentence[len(sentence)-1:], ".!?") {
			properEndings++
		}
	}

	completeness := float64(properEndings) / float64(len(sentences))

	if textutil.WordCount(text) < c.config.MinWords {
		completeness *= 0.7
	}
	return completeness
}

// SemanticDensity estimates information density as the ratio of technical
// terms to total words, scaled by 10 and clipped to [0, 1].
func (c *Chunker) SemanticDensity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0.0
	}

	terms := len(textutil.TechnicalTerms(text))
	density := float64(terms) / float64(len(words)) * 10
	if density > 1.0 {
		return 1.0
	}
	return density
}
