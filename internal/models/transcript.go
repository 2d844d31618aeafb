package models

import (
	"strings"
	"time"
)

// Segment is a single timed unit of a transcript. StartMs and EndMs are nil
// for article paragraphs and plain text, which carry no timing.
type Segment struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
	StartMs *int64 `json:"start_ms,omitempty"`
	EndMs   *int64 `json:"end_ms,omitempty"`
}

// Transcript represents normalized content from a single source, broken into
// ordered segments. Both video captions and article paragraphs normalize to
// this shape so the rest of the pipeline is source-agnostic.
type Transcript struct {
	// Identity
	ID         string `json:"id"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"` // "video" or "article"

	// Content
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Language string    `json:"language"` // ISO 639-1 code, "en" expected
	Segments []Segment `json:"segments"`

	// TotalDurationMs is nil for untimed sources
	TotalDurationMs *int64 `json:"total_duration_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FullText returns all segment texts joined with single spaces
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}

// WordCount returns the whitespace-delimited word count of the full text
func (t *Transcript) WordCount() int {
	return len(strings.Fields(t.FullText()))
}

// TranscriptValidation is the result of quality-checking a transcript
type TranscriptValidation struct {
	Valid              bool     `json:"valid"`
	WordCount          int      `json:"word_count"`
	LanguageConfidence float64  `json:"language_confidence"`
	QualityScore       float64  `json:"quality_score"`
	Issues             []string `json:"issues"`
}
