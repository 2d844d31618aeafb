package transcripts

import (
	"fmt"

	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/models"
)

// Merge concatenates multi-part transcripts into one, offsetting segment
// timestamps by the accumulated duration of the preceding parts. The first
// transcript provides the identity fields.
func (s *Service) Merge(parts []*models.Transcript) (*models.Transcript, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot merge empty transcript list")
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	base := parts[0]
	allSegments := make([]models.Segment, len(base.Segments))
	copy(allSegments, base.Segments)

	var currentTime int64
	if base.TotalDurationMs != nil {
		currentTime = *base.TotalDurationMs
	}

	for _, part := range parts[1:] {
		offset := currentTime

		for _, segment := range part.Segments {
			merged := models.Segment{
				ID:   common.NewSegmentID(),
				Text: segment.Text,
			}
			if segment.StartMs != nil {
				start := *segment.StartMs + offset
				merged.StartMs = &start
			}
			if segment.EndMs != nil {
				end := *segment.EndMs + offset
				merged.EndMs = &end
			}
			allSegments = append(allSegments, merged)
		}

		if part.TotalDurationMs != nil {
			currentTime += *part.TotalDurationMs
		}
	}

	for i := range allSegments {
		allSegments[i].Index = i
	}

	merged := &models.Transcript{
		ID:              base.ID,
		SourceID:        base.SourceID,
		SourceType:      base.SourceType,
		Title:           base.Title,
		URL:             base.URL,
		Language:        base.Language,
		Segments:        allSegments,
		TotalDurationMs: &currentTime,
		CreatedAt:       base.CreatedAt,
	}
	return merged, nil
}
