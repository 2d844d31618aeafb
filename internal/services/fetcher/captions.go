package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/httpclient"
	"github.com/ternarybob/cursana/internal/models"
)

// videoIDRegex extracts the 11-character video ID from common YouTube URL
// shapes, used for source metadata only.
var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`)

// CaptionFetcher loads video caption tracks (VTT, SRT, or plain text) from
// pre-supplied locations: local files, file:// URLs, or HTTP(S) URLs.
// Video platform transcript APIs are an external concern; this fetcher only
// honors the fetch contract for material the caller already has access to.
type CaptionFetcher struct {
	client *httpclient.Client
	logger arbor.ILogger
}

// NewCaptionFetcher creates a caption fetcher
func NewCaptionFetcher(client *httpclient.Client, logger arbor.ILogger) *CaptionFetcher {
	return &CaptionFetcher{
		client: client,
		logger: logger,
	}
}

// Fetch loads caption text from the given location and builds a video Source
func (f *CaptionFetcher) Fetch(ctx context.Context, location string) (*models.Source, error) {
	content, err := f.load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions from %s: %w", location, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty caption content at %s", location)
	}

	source := models.NewSource(common.NewSourceID(), models.SourceTypeVideo, location, captionTitle(location), content)
	if videoID := ExtractVideoID(location); videoID != "" {
		source.Metadata["video_id"] = videoID
	}

	f.logger.Debug().
		Str("location", location).
		Int("content_bytes", len(content)).
		Msg("Fetched captions")

	return source, nil
}

func (f *CaptionFetcher) load(ctx context.Context, location string) (string, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		body, err := f.client.Get(ctx, location)
		if err != nil {
			return "", err
		}
		return string(body), nil

	case strings.HasPrefix(location, "file://"):
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		data, err := os.ReadFile(location)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// captionTitle derives a readable title from the caption location
func captionTitle(location string) string {
	if videoID := ExtractVideoID(location); videoID != "" {
		return "Video " + videoID
	}

	base := filepath.Base(strings.TrimPrefix(location, "file://"))
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// ExtractVideoID pulls the video ID out of a YouTube URL, or "" when the
// location is not a recognized video URL.
func ExtractVideoID(url string) string {
	matches := videoIDRegex.FindStringSubmatch(url)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}
