package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
)

func testConfig() *common.ChunkingConfig {
	return &common.ChunkingConfig{
		MinWords:              20,
		MaxWords:              60,
		TargetWords:           40,
		SimilarityThreshold:   0.7,
		CoherenceThreshold:    0.7,
		CompletenessThreshold: 0.6,
		UseEmbeddings:         false,
	}
}

func newTestChunker() *Chunker {
	return NewChunker(testConfig(), nil, common.GetLogger())
}

func makeTranscript(sentenceCount int) *models.Transcript {
	var b strings.Builder
	for i := 0; i < sentenceCount; i++ {
		fmt.Fprintf(&b, "Sentence number %d explains an important concept about distributed consensus protocols. ", i)
	}
	return &models.Transcript{
		ID:         "transcript_src_test",
		SourceID:   "src_test",
		SourceType: models.SourceTypeVideo,
		Segments:   []models.Segment{{Text: strings.TrimSpace(b.String())}},
	}
}

func TestChunkBounds(t *testing.T) {
	chunker := newTestChunker()
	chunks := chunker.Chunk(context.Background(), makeTranscript(30))

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, chunk.WordCount, testConfig().MaxWords, "chunk %d exceeds max words", i)
		assert.Equal(t, "src_test", chunk.SourceID)
		assert.True(t, strings.HasPrefix(chunk.ID, "chunk_src_test_"))
	}
}

func TestChunkNeighborChain(t *testing.T) {
	chunker := newTestChunker()
	chunks := chunker.Chunk(context.Background(), makeTranscript(30))

	require.Greater(t, len(chunks), 1)
	assert.Empty(t, chunks[0].PreviousChunkID)
	assert.Empty(t, chunks[len(chunks)-1].NextChunkID)

	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].ID, chunks[i].PreviousChunkID)
		assert.Equal(t, chunks[i].ID, chunks[i-1].NextChunkID)
		assert.Equal(t, i, chunks[i].Index)
	}
}

func TestChunkShortTranscript(t *testing.T) {
	chunker := newTestChunker()

	transcript := &models.Transcript{
		SourceID: "src_test",
		Segments: []models.Segment{{Text: "Too short."}},
	}
	assert.Nil(t, chunker.Chunk(context.Background(), transcript))

	empty := &models.Transcript{SourceID: "src_test"}
	assert.Nil(t, chunker.Chunk(context.Background(), empty))
}

func TestChunkScoresWithinBounds(t *testing.T) {
	chunker := newTestChunker()
	chunks := chunker.Chunk(context.Background(), makeTranscript(30))

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.GreaterOrEqual(t, chunk.CoherenceScore, 0.0)
		assert.LessOrEqual(t, chunk.CoherenceScore, 1.0)
		assert.GreaterOrEqual(t, chunk.CompletenessScore, 0.0)
		assert.LessOrEqual(t, chunk.CompletenessScore, 1.0)
		assert.GreaterOrEqual(t, chunk.SemanticDensity, 0.0)
		assert.LessOrEqual(t, chunk.SemanticDensity, 1.0)
		assert.LessOrEqual(t, len(chunk.TopicKeywords), 10)
	}
}

func TestSplitLargeChunk(t *testing.T) {
	chunker := newTestChunker()

	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "This sentence has exactly eight words in it now. ")
	}
	subChunks := chunker.splitLargeChunk(strings.TrimSpace(b.String()))

	require.Greater(t, len(subChunks), 1)
	for _, sub := range subChunks {
		assert.LessOrEqual(t, len(strings.Fields(sub)), testConfig().MaxWords)
	}
}

func TestRepairMergesUndersizedChunks(t *testing.T) {
	chunker := newTestChunker()

	small1 := &models.Chunk{
		ID: "chunk_src_test_aaa", SourceID: "src_test", Index: 0,
		Text: "Small first chunk about databases.", WordCount: 5,
		CoherenceScore: 0.9, CompletenessScore: 0.9,
	}
	small2 := &models.Chunk{
		ID: "chunk_src_test_bbb", SourceID: "src_test", Index: 1,
		Text: "Small second chunk about indexing.", WordCount: 5,
		CoherenceScore: 0.9, CompletenessScore: 0.9,
	}

	repaired := chunker.Repair([]*models.Chunk{small1, small2})

	require.Len(t, repaired, 1)
	assert.Contains(t, repaired[0].Text, "databases")
	assert.Contains(t, repaired[0].Text, "indexing")
	assert.Equal(t, 10, repaired[0].WordCount)
	assert.Empty(t, repaired[0].PreviousChunkID)
	assert.Empty(t, repaired[0].NextChunkID)
}

func TestRepairMergesLowCoherenceChunks(t *testing.T) {
	chunker := newTestChunker()

	firstText := "The first chunk discusses how distributed consensus protocols elect a coordinator and why a stable coordinator simplifies log replication across every participating node in the cluster."
	secondText := "The second chunk explains quorum intersection and shows why two majorities of the same membership always share at least one node between them."

	choppy := &models.Chunk{
		ID: "chunk_src_test_aaa", SourceID: "src_test", Index: 0,
		Text: firstText, WordCount: len(strings.Fields(firstText)),
		CoherenceScore: 0.65, CompletenessScore: 0.9,
	}
	next := &models.Chunk{
		ID: "chunk_src_test_bbb", SourceID: "src_test", Index: 1,
		Text: secondText, WordCount: len(strings.Fields(secondText)),
		CoherenceScore: 0.9, CompletenessScore: 0.9,
	}

	repaired := chunker.Repair([]*models.Chunk{choppy, next})

	require.Len(t, repaired, 1)
	assert.Contains(t, repaired[0].Text, "coordinator")
	assert.Contains(t, repaired[0].Text, "quorum")
}

func TestRepairKeepsAdequateCompleteness(t *testing.T) {
	chunker := newTestChunker()

	firstText := "The first chunk discusses how distributed consensus protocols elect a coordinator and why a stable coordinator simplifies log replication across every participating node in the cluster."
	secondText := "The second chunk explains quorum intersection and shows why two majorities of the same membership always share at least one node between them."

	// Completeness 0.65 sits between the two thresholds and must not merge
	chunk1 := &models.Chunk{
		ID: "chunk_src_test_aaa", SourceID: "src_test", Index: 0,
		Text: firstText, WordCount: len(strings.Fields(firstText)),
		CoherenceScore: 0.9, CompletenessScore: 0.65,
	}
	chunk2 := &models.Chunk{
		ID: "chunk_src_test_bbb", SourceID: "src_test", Index: 1,
		Text: secondText, WordCount: len(strings.Fields(secondText)),
		CoherenceScore: 0.9, CompletenessScore: 0.9,
	}

	repaired := chunker.Repair([]*models.Chunk{chunk1, chunk2})

	require.Len(t, repaired, 2)
	assert.Equal(t, "chunk_src_test_aaa", repaired[0].ID)
	assert.Equal(t, "chunk_src_test_bbb", repaired[1].ID)
}

func TestRepairSplitsOversizedChunks(t *testing.T) {
	chunker := newTestChunker()

	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "This oversized chunk sentence carries ten whole words right here now. ")
	}
	text := strings.TrimSpace(b.String())

	big := &models.Chunk{
		ID: "chunk_src_test_ccc", SourceID: "src_test", Index: 0,
		Text: text, WordCount: len(strings.Fields(text)),
		CoherenceScore: 0.9, CompletenessScore: 0.9,
	}

	repaired := chunker.Repair([]*models.Chunk{big})

	require.Greater(t, len(repaired), 1)
	for i, chunk := range repaired {
		assert.LessOrEqual(t, chunk.WordCount, testConfig().MaxWords)
		assert.Equal(t, i, chunk.Index)
		assert.True(t, strings.HasPrefix(chunk.ID, "chunk_src_test_ccc_sub"))
	}
}

func TestRepairEmpty(t *testing.T) {
	chunker := newTestChunker()
	assert.Empty(t, chunker.Repair(nil))
}

// sentenceEmbedder returns fixed embeddings keyed by sentence text
type sentenceEmbedder struct {
	embeddings map[string][]float32
}

func (f *sentenceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if emb, ok := f.embeddings[text]; ok {
		return emb, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *sentenceEmbedder) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return "", nil
}

func (f *sentenceEmbedder) ChatWithOptions(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	return "", nil
}

func (f *sentenceEmbedder) HealthCheck(ctx context.Context) error { return nil }
func (f *sentenceEmbedder) ModelName() string                     { return "fake-embed" }
func (f *sentenceEmbedder) Close() error                          { return nil }

func TestEmbeddingBoundariesCutAtFirstSentencePair(t *testing.T) {
	first := "This opening sentence already carries more than the twenty words needed to satisfy the minimum chunk size before any topical shift occurs."
	second := "Container orchestration schedules workloads across machines."

	llm := &sentenceEmbedder{embeddings: map[string][]float32{
		first:  {1, 0, 0},
		second: {0, 1, 0},
	}}
	config := testConfig()
	config.UseEmbeddings = true
	chunker := NewChunker(config, llm, common.GetLogger())

	boundaries := chunker.embeddingBoundaries(context.Background(), []string{first, second})

	assert.Equal(t, []int{0, 1}, boundaries)
}

func TestEmbeddingBoundariesHoldUntilMinimumSize(t *testing.T) {
	first := "Short similar sentence."
	second := "Another short dissimilar sentence."

	llm := &sentenceEmbedder{embeddings: map[string][]float32{
		first:  {1, 0, 0},
		second: {0, 1, 0},
	}}
	config := testConfig()
	config.UseEmbeddings = true
	chunker := NewChunker(config, llm, common.GetLogger())

	boundaries := chunker.embeddingBoundaries(context.Background(), []string{first, second})

	assert.Equal(t, []int{0}, boundaries)
}
