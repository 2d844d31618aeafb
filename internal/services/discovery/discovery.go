// Package discovery finds candidate content URLs for a learning query.
// The shipped implementation serves seed URLs from configuration; search
// API backends plug in behind the same interface.
package discovery

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
)

// ConfigDiscoverer serves discovery results from configured seed URLs.
// Empty seed lists yield empty results, which the pipeline treats as a
// zero-source condition.
type ConfigDiscoverer struct {
	config *common.DiscoveryConfig
	logger arbor.ILogger
}

// NewConfigDiscoverer creates a seed-backed discoverer
func NewConfigDiscoverer(config *common.DiscoveryConfig, logger arbor.ILogger) *ConfigDiscoverer {
	return &ConfigDiscoverer{
		config: config,
		logger: logger,
	}
}

// Discover returns up to maxVideos/maxArticles seed URLs. The query and
// difficulty are recorded in diagnostics; seeds are not query-filtered.
func (d *ConfigDiscoverer) Discover(ctx context.Context, query string, maxVideos, maxArticles int, difficulty string) (*interfaces.DiscoveryResult, error) {
	if maxVideos <= 0 {
		maxVideos = d.config.MaxVideos
	}
	if maxArticles <= 0 {
		maxArticles = d.config.MaxArticles
	}

	videos := capList(d.config.VideoURLs, maxVideos)
	articles := capList(d.config.ArticleURLs, maxArticles)

	d.logger.Info().
		Str("query", query).
		Int("videos", len(videos)).
		Int("articles", len(articles)).
		Msg("Discovered seed sources")

	return &interfaces.DiscoveryResult{
		VideoURLs:   videos,
		ArticleURLs: articles,
		Diagnostics: map[string]interface{}{
			"query":      query,
			"difficulty": difficulty,
			"backend":    "config-seeds",
		},
	}, nil
}

func capList(urls []string, limit int) []string {
	if limit <= 0 || len(urls) <= limit {
		return urls
	}
	return urls[:limit]
}
