// Package transcripts normalizes raw source content (video captions, web
// articles, plain text) into the Transcript form the pipeline operates on.
package transcripts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

// Service normalizes raw content into transcripts
type Service struct {
	logger arbor.ILogger
}

// NewService creates a transcript normalizer
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

var (
	vttTimestampRegex = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`)
	srtTimestampRegex = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)
	srtIndexRegex     = regexp.MustCompile(`^\d+\s*$`)
	srtBlockSplit     = regexp.MustCompile(`\n\s*\n`)
)

// NormalizeCaptions converts a video caption payload (WebVTT, SRT, or plain
// text) into a Transcript with timed segments where the format provides them.
func (s *Service) NormalizeCaptions(source *models.Source) *models.Transcript {
	raw := source.RawContent

	var segments []models.Segment
	switch {
	case strings.Contains(raw, "-->") || strings.Contains(raw, "WEBVTT"):
		segments = parseVTT(raw)
	case firstLineIsNumeric(raw):
		segments = parseSRT(raw)
	default:
		if clean := textutil.CleanText(raw); clean != "" {
			segments = []models.Segment{{
				ID:   common.NewSegmentID(),
				Text: clean,
			}}
		}
	}

	for i := range segments {
		segments[i].Index = i
	}

	// Total duration comes from the last timed segment
	var totalDurationMs *int64
	if len(segments) > 0 && segments[len(segments)-1].EndMs != nil {
		totalDurationMs = segments[len(segments)-1].EndMs
	}

	transcript := &models.Transcript{
		ID:              "transcript_" + source.ID,
		SourceID:        source.ID,
		SourceType:      models.SourceTypeVideo,
		Title:           source.Title,
		URL:             source.URL,
		Segments:        segments,
		TotalDurationMs: totalDurationMs,
		CreatedAt:       time.Now(),
	}
	transcript.Language, _ = textutil.DetectLanguage(transcript.FullText())

	s.logger.Debug().
		Str("source_id", source.ID).
		Int("segments", len(segments)).
		Msg("Normalized caption content")

	return transcript
}

// articleSelectors are tried in order to locate the main content container
var articleSelectors = []string{
	"article",
	`[role="article"]`,
	".article-content",
	".post-content",
	".entry-content",
	"main",
	".content",
}

// NormalizeArticle converts article HTML into a Transcript with one untimed
// segment per paragraph of at least five words. When no qualifying
// paragraphs are found, the whole container becomes a single segment.
func (s *Service) NormalizeArticle(source *models.Source) (*models.Transcript, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source.RawContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var content *goquery.Selection
	for _, selector := range articleSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			content = sel
			break
		}
	}
	if content == nil {
		if body := doc.Find("body").First(); body.Length() > 0 {
			content = body
		} else {
			content = doc.Selection
		}
	}

	var segments []models.Segment
	content.Find("p, div, section").Each(func(_ int, para *goquery.Selection) {
		clean := textutil.CleanText(para.Text())
		if clean != "" && textutil.WordCount(clean) > 5 {
			segments = append(segments, models.Segment{
				ID:    common.NewSegmentID(),
				Index: len(segments),
				Text:  clean,
			})
		}
	})

	// Whole-container fallback when no paragraphs qualified
	if len(segments) == 0 {
		if clean := textutil.CleanText(content.Text()); clean != "" {
			segments = append(segments, models.Segment{
				ID:   common.NewSegmentID(),
				Text: clean,
			})
		}
	}

	transcript := &models.Transcript{
		ID:         "transcript_" + source.ID,
		SourceID:   source.ID,
		SourceType: models.SourceTypeArticle,
		Title:      source.Title,
		URL:        source.URL,
		Segments:   segments,
		CreatedAt:  time.Now(),
	}
	transcript.Language, _ = textutil.DetectLanguage(transcript.FullText())

	s.logger.Debug().
		Str("source_id", source.ID).
		Int("segments", len(segments)).
		Msg("Normalized article content")

	return transcript, nil
}

// Normalize dispatches on source type
func (s *Service) Normalize(source *models.Source) (*models.Transcript, error) {
	switch source.Type {
	case models.SourceTypeVideo:
		return s.NormalizeCaptions(source), nil
	case models.SourceTypeArticle:
		return s.NormalizeArticle(source)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", source.Type)
	}
}

func firstLineIsNumeric(raw string) bool {
	firstLine := raw
	if idx := strings.Index(raw, "\n"); idx >= 0 {
		firstLine = raw[:idx]
	}
	return srtIndexRegex.MatchString(firstLine)
}

func parseVTT(raw string) []models.Segment {
	var segments []models.Segment

	var currentText strings.Builder
	var startMs, endMs *int64

	flush := func() {
		if currentText.Len() == 0 || startMs == nil {
			return
		}
		if clean := textutil.CleanText(currentText.String()); clean != "" {
			segments = append(segments, models.Segment{
				ID:      common.NewSegmentID(),
				Text:    clean,
				StartMs: startMs,
				EndMs:   endMs,
			})
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") {
			continue
		}

		if match := vttTimestampRegex.FindStringSubmatch(line); match != nil {
			flush()
			start := timestampToMs(match[1], match[2], match[3], match[4])
			end := timestampToMs(match[5], match[6], match[7], match[8])
			startMs, endMs = &start, &end
			currentText.Reset()
			continue
		}

		// Skip numeric cue identifiers
		if srtIndexRegex.MatchString(line) {
			continue
		}

		if startMs != nil {
			currentText.WriteString(" ")
			currentText.WriteString(line)
		}
	}
	flush()

	return segments
}

func parseSRT(raw string) []models.Segment {
	var segments []models.Segment

	for _, block := range srtBlockSplit.Split(raw, -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		match := srtTimestampRegex.FindStringSubmatch(lines[1])
		if match == nil {
			continue
		}
		start := timestampToMs(match[1], match[2], match[3], match[4])
		end := timestampToMs(match[5], match[6], match[7], match[8])

		text := strings.Join(lines[2:], " ")
		if clean := textutil.CleanText(text); clean != "" {
			segments = append(segments, models.Segment{
				ID:      common.NewSegmentID(),
				Text:    clean,
				StartMs: &start,
				EndMs:   &end,
			})
		}
	}

	return segments
}

// timestampToMs converts regex-validated HH, MM, SS, mmm captures to milliseconds
func timestampToMs(h, m, sec, ms string) int64 {
	hours, _ := strconv.ParseInt(h, 10, 64)
	minutes, _ := strconv.ParseInt(m, 10, 64)
	seconds, _ := strconv.ParseInt(sec, 10, 64)
	millis, _ := strconv.ParseInt(ms, 10, 64)
	return hours*3600000 + minutes*60000 + seconds*1000 + millis
}
