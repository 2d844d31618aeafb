package transcripts

import (
	"fmt"
	"strings"

	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

// Validate quality-checks a transcript. The quality score starts at 1.0 and
// is multiplied down per issue; a transcript is valid when the score is at
// least 0.5 and it has at least one segment.
func (s *Service) Validate(transcript *models.Transcript) *models.TranscriptValidation {
	issues := []string{}
	qualityScore := 1.0

	wordCount := transcript.WordCount()
	if wordCount < 200 {
		issues = append(issues, fmt.Sprintf("Low word count: %d (minimum: 200)", wordCount))
		qualityScore *= 0.5
	}

	language, confidence := textutil.DetectLanguage(transcript.FullText())
	if language != "en" {
		issues = append(issues, fmt.Sprintf("Non-English content detected: %s", language))
		qualityScore *= 0.7
	}
	if confidence < 0.5 {
		issues = append(issues, fmt.Sprintf("Low language detection confidence: %.2f", confidence))
		qualityScore *= 0.8
	}

	// Excessive repetition check
	words := strings.Fields(strings.ToLower(transcript.FullText()))
	if len(words) > 0 {
		unique := map[string]struct{}{}
		for _, word := range words {
			unique[word] = struct{}{}
		}
		uniqueRatio := float64(len(unique)) / float64(len(words))
		if uniqueRatio < 0.3 {
			issues = append(issues, "High repetition detected (low unique word ratio)")
			qualityScore *= 0.6
		}
	}

	if len(transcript.Segments) == 0 {
		issues = append(issues, "No segments found")
		qualityScore = 0.0
	}

	if qualityScore < 0 {
		qualityScore = 0
	}

	return &models.TranscriptValidation{
		Valid:              qualityScore >= 0.5 && len(transcript.Segments) > 0,
		WordCount:          wordCount,
		LanguageConfidence: confidence,
		QualityScore:       qualityScore,
		Issues:             issues,
	}
}
