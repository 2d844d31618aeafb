package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
)

// embedLLM returns fixed embeddings keyed by input text
type embedLLM struct {
	embeddings map[string][]float32
	err        error
	chatResp   string
}

func (f *embedLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if emb, ok := f.embeddings[text]; ok {
		return emb, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *embedLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return f.chatResp, nil
}

func (f *embedLLM) ChatWithOptions(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	return f.chatResp, nil
}

func (f *embedLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *embedLLM) ModelName() string                     { return "fake-embed" }
func (f *embedLLM) Close() error                          { return nil }

func claim(id, source, subject, predicate, object string, confidence float64) *models.Claim {
	return &models.Claim{
		ID:         id,
		SourceID:   source,
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Confidence: confidence,
	}
}

func TestParseTriples(t *testing.T) {
	response := `Here are the claims:
("Raft", "elects", "a single leader per term")
("Followers", "replicate", "log entries")
Not a triple line.`

	claims := ParseTriples(response, "src_1")

	require.Len(t, claims, 2)
	assert.Equal(t, "Raft", claims[0].Subject)
	assert.Equal(t, "elects", claims[0].Predicate)
	assert.Equal(t, "a single leader per term", claims[0].Object)
	assert.Equal(t, "src_1", claims[0].SourceID)
	assert.Equal(t, 1.0, claims[0].Confidence)
	assert.Equal(t, "Followers", claims[1].Subject)
}

func TestParseTriplesNoMatches(t *testing.T) {
	assert.Empty(t, ParseTriples("no triples here", "src_1"))
}

func TestFromExpansion(t *testing.T) {
	start := int64(12000)
	chunk := &models.Chunk{ID: "chunk_src_a_abc", SourceID: "src_a", StartMs: &start}
	expanded := &models.ExpandedChunk{
		SourceID: "src_a",
		Claims: []models.ClaimTriple{
			{Subject: " Raft ", Predicate: "elects", Object: "a leader", Confidence: 0.9},
			{Subject: "Terms", Predicate: "increase", Object: "monotonically"},
		},
	}

	claims := FromExpansion(expanded, chunk)

	require.Len(t, claims, 2)
	assert.Equal(t, "Raft", claims[0].Subject)
	assert.Equal(t, 0.9, claims[0].Confidence)
	require.NotNil(t, claims[0].TimestampMs)
	assert.Equal(t, start, *claims[0].TimestampMs)
	assert.Equal(t, 0.8, claims[1].Confidence)
}

func TestChunkBySentencesPacksWindows(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	windows := chunkBySentences(text, 45)

	require.Len(t, windows, 2)
	assert.Contains(t, windows[0], "First sentence here")
	assert.Contains(t, windows[1], "Third sentence here")
}

func newTestBuilder(llm interfaces.LLMService) *Builder {
	return NewBuilder(0.85, llm, common.GetLogger())
}

func TestBuildClustersIdenticalClaims(t *testing.T) {
	llm := &embedLLM{embeddings: map[string][]float32{
		"Raft elects a leader": {1, 0, 0},
	}}
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "elects", "a leader", 0.9),
		claim("c2", "src_b", "Raft", "elects", "a leader", 0.7),
	}

	result, err := newTestBuilder(llm).Build(context.Background(), claims)

	require.NoError(t, err)
	require.Len(t, result.ConsensusClaims, 1)
	consensus := result.ConsensusClaims[0]
	assert.Equal(t, "Raft", consensus.Subject)
	assert.Equal(t, 2, consensus.SupportCount)
	assert.Equal(t, []string{"c1", "c2"}, consensus.SupportClaimIDs)
	assert.Equal(t, []string{"src_a", "src_b"}, consensus.SupportSourceIDs)
	assert.InDelta(t, 0.8, consensus.Confidence, 1e-9)
	assert.Empty(t, result.Contradictions)
}

func TestBuildCrossSourceAgreement(t *testing.T) {
	llm := &embedLLM{embeddings: map[string][]float32{
		"Neural networks are inspired by biological neurons": {0, 0, 1},
	}}
	claims := []*models.Claim{
		claim("c1", "src_a", "Neural networks", "are inspired by", "biological neurons", 0.9),
		claim("c2", "src_b", "Neural networks", "are inspired by", "biological neurons", 0.95),
	}

	result, err := newTestBuilder(llm).Build(context.Background(), claims)

	require.NoError(t, err)
	require.Len(t, result.ConsensusClaims, 1)
	consensus := result.ConsensusClaims[0]
	assert.Equal(t, 2, consensus.SupportCount)
	assert.ElementsMatch(t, []string{"src_a", "src_b"}, consensus.SupportSourceIDs)
	assert.InDelta(t, 0.925, consensus.Confidence, 1e-9)
	assert.Empty(t, result.Contradictions)
}

func TestBuildSeparatesDissimilarClaims(t *testing.T) {
	llm := &embedLLM{embeddings: map[string][]float32{
		"Raft elects a leader":      {1, 0, 0},
		"Paxos uses ballot numbers": {0, 1, 0},
	}}
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "elects", "a leader", 1.0),
		claim("c2", "src_b", "Paxos", "uses", "ballot numbers", 1.0),
	}

	result, err := newTestBuilder(llm).Build(context.Background(), claims)

	require.NoError(t, err)
	assert.Len(t, result.ConsensusClaims, 2)
}

func TestBuildDedupesSources(t *testing.T) {
	llm := &embedLLM{}
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "elects", "a leader", 1.0),
		claim("c2", "src_a", "Raft", "elects", "a leader", 1.0),
	}

	result, err := newTestBuilder(llm).Build(context.Background(), claims)

	require.NoError(t, err)
	require.Len(t, result.ConsensusClaims, 1)
	assert.Equal(t, []string{"src_a"}, result.ConsensusClaims[0].SupportSourceIDs)
}

func TestBuildFallsBackOnEmbeddingError(t *testing.T) {
	llm := &embedLLM{err: errors.New("quota exhausted")}
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "elects", "a leader", 1.0),
		claim("c2", "src_b", "Raft", "elects", "a leader", 1.0),
	}

	result, err := newTestBuilder(llm).Build(context.Background(), claims)

	require.NoError(t, err)
	// identical text yields identical fallback embeddings
	assert.Len(t, result.ConsensusClaims, 1)
}

func TestBuildEmptyInput(t *testing.T) {
	result, err := newTestBuilder(&embedLLM{}).Build(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, result.ConsensusClaims)
	assert.Empty(t, result.Contradictions)
}

func TestDetectContradictions(t *testing.T) {
	builder := newTestBuilder(&embedLLM{})
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "requires", "a leader", 1.0),
		claim("c2", "src_b", "Raft", "requires", "no leader at all", 1.0),
	}

	contradictions := builder.detectContradictions(claims)

	require.Len(t, contradictions, 1)
	assert.Equal(t, "c1", contradictions[0].ClaimID1)
	assert.Equal(t, "c2", contradictions[0].ClaimID2)
	assert.Equal(t, "Conflicting objects for 'raft requires'.", contradictions[0].Reasoning)
}

func TestDetectContradictionsIgnoresBothNegated(t *testing.T) {
	builder := newTestBuilder(&embedLLM{})
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "requires", "no quorum", 1.0),
		claim("c2", "src_b", "Raft", "requires", "never a quorum", 1.0),
	}

	assert.Empty(t, builder.detectContradictions(claims))
}

func TestDetectContradictionsIgnoresDifferentPredicates(t *testing.T) {
	builder := newTestBuilder(&embedLLM{})
	claims := []*models.Claim{
		claim("c1", "src_a", "Raft", "requires", "a leader", 1.0),
		claim("c2", "src_b", "Raft", "avoids", "no leader", 1.0),
	}

	assert.Empty(t, builder.detectContradictions(claims))
}

func TestDetectContradictionsCaseInsensitiveGrouping(t *testing.T) {
	builder := newTestBuilder(&embedLLM{})
	claims := []*models.Claim{
		claim("c1", "src_a", "RAFT", "Requires", "a leader", 1.0),
		claim("c2", "src_b", "raft", "requires", "not a leader", 1.0),
	}

	assert.Len(t, builder.detectContradictions(claims), 1)
}
