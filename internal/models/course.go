package models

import (
	"time"
)

// OutlineSection is one planned section of a course before assembly
type OutlineSection struct {
	ID        string   `json:"id"` // section-1, section-2, ...
	Title     string   `json:"title"`
	Content   string   `json:"content"` // Short description of what the section covers
	SourceIDs []string `json:"source_ids,omitempty"`
}

// CourseOutline is the planned structure of a course, produced by the
// structure generator. UsedFallback marks outlines built deterministically
// after an LLM failure.
type CourseOutline struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Sections     []OutlineSection `json:"sections"`
	Glossary     []string         `json:"glossary,omitempty"` // Terms worth defining
	UsedFallback bool             `json:"used_fallback"`
}

// PracticeQuestion is a self-check question attached to a course section
type PracticeQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Citation attributes section content back to an ingested source
type Citation struct {
	SourceID           string  `json:"source_id"`
	SourceType         string  `json:"source_type"`
	Title              string  `json:"title"`
	URL                string  `json:"url"`
	TimestampMs        *int64  `json:"timestamp_ms,omitempty"`
	TimestampFormatted string  `json:"timestamp_formatted,omitempty"` // "MM:SS" for timed sources
	RelevanceScore     float64 `json:"relevance_score"`
}

// CourseSection is a fully assembled section of a generated course
type CourseSection struct {
	// Identity
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Index    int    `json:"index"`

	// Content
	Title             string             `json:"title"`
	Subtitle          string             `json:"subtitle,omitempty"`
	Content           string             `json:"content"`
	KeyTakeaways      []string           `json:"key_takeaways"`
	GlossaryTerms     map[string]string  `json:"glossary_terms"`
	PracticeQuestions []PracticeQuestion `json:"practice_questions,omitempty"`

	// Attribution
	Citations        []Citation `json:"citations"`
	PrimarySourceIDs []string   `json:"primary_source_ids"`

	// Derived signals
	ReadingMinutes  int     `json:"reading_minutes"`
	Difficulty      string  `json:"difficulty"`
	CoherenceScore  float64 `json:"coherence_score"`
	CoverageScore   float64 `json:"coverage_score"`
	ConfidenceScore float64 `json:"confidence_score"`

	// Contradiction surfacing
	HasContradictions bool   `json:"has_contradictions"`
	ControversyNotes  string `json:"controversy_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Course is the final assembled artifact for a query
type Course struct {
	ID          string `json:"id"` // course_{uuid}
	Query       string `json:"query"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Sections []CourseSection   `json:"sections"`
	Glossary map[string]string `json:"glossary"`

	EstimatedMinutes int `json:"estimated_minutes"`
	SectionCount     int `json:"section_count"`

	CreatedAt time.Time `json:"created_at"`
}

// CourseSourceLink records which sources fed a generated course
type CourseSourceLink struct {
	ID       string `json:"id"` // courseID + ":" + sourceID
	CourseID string `json:"course_id"`
	SourceID string `json:"source_id"`

	CreatedAt time.Time `json:"created_at"`
}
