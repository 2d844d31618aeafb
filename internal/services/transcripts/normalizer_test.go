package transcripts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/models"
)

func newTestService() *Service {
	return NewService(common.GetLogger())
}

func TestNormalizeCaptionsVTT(t *testing.T) {
	vtt := `WEBVTT

00:00:00.000 --> 00:00:04.500
Welcome to the course on distributed systems.

00:00:04.500 --> 00:00:09.000
Today we cover consensus algorithms in depth.
`

	source := models.NewSource("src_test", models.SourceTypeVideo, "https://example.com/v1", "Distributed Systems", vtt)
	transcript := newTestService().NormalizeCaptions(source)

	require.Len(t, transcript.Segments, 2)
	assert.Equal(t, "Welcome to the course on distributed systems.", transcript.Segments[0].Text)
	require.NotNil(t, transcript.Segments[0].StartMs)
	assert.Equal(t, int64(0), *transcript.Segments[0].StartMs)
	require.NotNil(t, transcript.Segments[0].EndMs)
	assert.Equal(t, int64(4500), *transcript.Segments[0].EndMs)

	require.NotNil(t, transcript.TotalDurationMs)
	assert.Equal(t, int64(9000), *transcript.TotalDurationMs)
	assert.Equal(t, models.SourceTypeVideo, transcript.SourceType)
}

func TestNormalizeCaptionsSRT(t *testing.T) {
	srt := `1
00:00:01,000 --> 00:00:03,500
First subtitle line here.

2
00:00:03,500 --> 00:00:06,000
Second subtitle line here.
`

	source := models.NewSource("src_test", models.SourceTypeVideo, "https://example.com/v2", "Test", srt)
	transcript := newTestService().NormalizeCaptions(source)

	require.Len(t, transcript.Segments, 2)
	require.NotNil(t, transcript.Segments[0].StartMs)
	assert.Equal(t, int64(1000), *transcript.Segments[0].StartMs)
	require.NotNil(t, transcript.Segments[1].EndMs)
	assert.Equal(t, int64(6000), *transcript.Segments[1].EndMs)
}

func TestNormalizeCaptionsPlainText(t *testing.T) {
	source := models.NewSource("src_test", models.SourceTypeVideo, "https://example.com/v3", "Test",
		"Just a plain transcript without any timing information at all.")
	transcript := newTestService().NormalizeCaptions(source)

	require.Len(t, transcript.Segments, 1)
	assert.Nil(t, transcript.Segments[0].StartMs)
	assert.Nil(t, transcript.TotalDurationMs)
}

func TestNormalizeCaptionsEmpty(t *testing.T) {
	source := models.NewSource("src_test", models.SourceTypeVideo, "https://example.com/v4", "Test", "")
	transcript := newTestService().NormalizeCaptions(source)
	assert.Empty(t, transcript.Segments)
}

func TestNormalizeArticle(t *testing.T) {
	html := `<html><head><script>var x = 1;</script></head><body>
<nav>Home | About</nav>
<article>
<p>The first paragraph talks about machine learning fundamentals in detail.</p>
<p>Short one.</p>
<p>The second qualifying paragraph explains gradient descent optimization with several examples.</p>
</article>
<footer>Copyright</footer>
</body></html>`

	source := models.NewSource("src_test", models.SourceTypeArticle, "https://example.com/a1", "ML Intro", html)
	transcript, err := newTestService().NormalizeArticle(source)
	require.NoError(t, err)

	require.Len(t, transcript.Segments, 2)
	assert.Contains(t, transcript.Segments[0].Text, "machine learning fundamentals")
	assert.Contains(t, transcript.Segments[1].Text, "gradient descent")
	for i, seg := range transcript.Segments {
		assert.Equal(t, i, seg.Index)
		assert.Nil(t, seg.StartMs)
	}
}

func TestNormalizeArticleFallbackToContainer(t *testing.T) {
	html := `<html><body><main>one two three four five six seven eight</main></body></html>`

	source := models.NewSource("src_test", models.SourceTypeArticle, "https://example.com/a2", "Short", html)
	transcript, err := newTestService().NormalizeArticle(source)
	require.NoError(t, err)

	require.Len(t, transcript.Segments, 1)
	assert.Contains(t, transcript.Segments[0].Text, "one two three")
}

func TestValidate(t *testing.T) {
	svc := newTestService()

	t.Run("long english transcript is valid", func(t *testing.T) {
		words := make([]string, 0, 300)
		fillers := []string{"the", "system", "processes", "data", "and", "it", "scales", "across", "nodes", "that", "have", "redundancy"}
		for i := 0; i < 30; i++ {
			words = append(words, fillers...)
		}
		transcript := &models.Transcript{
			Segments: []models.Segment{{Text: strings.Join(words, " ")}},
		}

		result := svc.Validate(transcript)
		assert.True(t, result.Valid)
		assert.GreaterOrEqual(t, result.QualityScore, 0.5)
		assert.Equal(t, 360, result.WordCount)
	})

	t.Run("empty transcript is invalid with zero score", func(t *testing.T) {
		result := svc.Validate(&models.Transcript{})
		assert.False(t, result.Valid)
		assert.Equal(t, 0.0, result.QualityScore)
		assert.Contains(t, result.Issues, "No segments found")
	})

	t.Run("short transcript is penalized", func(t *testing.T) {
		transcript := &models.Transcript{
			Segments: []models.Segment{{Text: "the quick brown fox and it jumps over that lazy dog to have fun"}},
		}
		result := svc.Validate(transcript)
		assert.Less(t, result.QualityScore, 1.0)
	})
}

func TestMerge(t *testing.T) {
	svc := newTestService()

	ms := func(v int64) *int64 { return &v }

	part1 := &models.Transcript{
		ID:       "transcript_src_a",
		SourceID: "src_a",
		Segments: []models.Segment{
			{ID: "seg_1", Index: 0, Text: "part one", StartMs: ms(0), EndMs: ms(5000)},
		},
		TotalDurationMs: ms(5000),
	}
	part2 := &models.Transcript{
		ID:       "transcript_src_b",
		SourceID: "src_b",
		Segments: []models.Segment{
			{ID: "seg_2", Index: 0, Text: "part two", StartMs: ms(0), EndMs: ms(3000)},
		},
		TotalDurationMs: ms(3000),
	}

	merged, err := svc.Merge([]*models.Transcript{part1, part2})
	require.NoError(t, err)

	require.Len(t, merged.Segments, 2)
	assert.Equal(t, "src_a", merged.SourceID)
	require.NotNil(t, merged.Segments[1].StartMs)
	assert.Equal(t, int64(5000), *merged.Segments[1].StartMs)
	require.NotNil(t, merged.TotalDurationMs)
	assert.Equal(t, int64(8000), *merged.TotalDurationMs)
	assert.Equal(t, 1, merged.Segments[1].Index)
}

func TestMergeEdgeCases(t *testing.T) {
	svc := newTestService()

	_, err := svc.Merge(nil)
	assert.Error(t, err)

	single := &models.Transcript{ID: "transcript_src_x"}
	merged, err := svc.Merge([]*models.Transcript{single})
	require.NoError(t, err)
	assert.Same(t, single, merged)
}
