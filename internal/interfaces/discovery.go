package interfaces

import (
	"context"

	"github.com/ternarybob/cursana/internal/models"
)

// DiscoveryResult carries discovered content URLs plus diagnostics about
// how the candidate lists were produced.
type DiscoveryResult struct {
	VideoURLs   []string
	ArticleURLs []string
	Diagnostics map[string]interface{}
}

// Discoverer finds candidate content URLs for a learning query.
// Empty result lists are valid; the pipeline decides whether the
// combined yield is enough to proceed.
type Discoverer interface {
	Discover(ctx context.Context, query string, maxVideos, maxArticles int, difficulty string) (*DiscoveryResult, error)
}

// Fetcher retrieves raw content for a single URL. Implementations exist for
// web articles (HTTP + readability extraction) and video captions
// (pre-supplied transcript files or URLs).
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.Source, error)
}
