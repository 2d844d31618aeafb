package models

import (
	"time"
)

const (
	// SourceTypeVideo indicates content originating from a video transcript
	SourceTypeVideo = "video"
	// SourceTypeArticle indicates content originating from a web article
	SourceTypeArticle = "article"
)

// Source represents raw content fetched from an external location.
// Cached by URL: re-fetching the same URL upserts the existing record.
type Source struct {
	// Identity
	ID   string `json:"id"`   // src_{uuid}
	Type string `json:"type"` // "video" or "article"
	URL  string `json:"url"`  // Original location, cache key

	// Content
	Title      string `json:"title"`
	RawContent string `json:"raw_content"` // Caption text or extracted article markdown

	// Metadata (source-specific data: duration, author, site name)
	Metadata map[string]interface{} `json:"metadata"`

	// Timestamps
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSource creates a source with the required identity fields set
func NewSource(id, sourceType, url, title, rawContent string) *Source {
	return &Source{
		ID:         id,
		Type:       sourceType,
		URL:        url,
		Title:      title,
		RawContent: rawContent,
		Metadata:   map[string]interface{}{},
		FetchedAt:  time.Now(),
	}
}
