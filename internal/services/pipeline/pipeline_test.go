package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/chunker"
	"github.com/ternarybob/cursana/internal/services/consensus"
	"github.com/ternarybob/cursana/internal/services/course"
	"github.com/ternarybob/cursana/internal/services/discovery"
	"github.com/ternarybob/cursana/internal/services/expander"
	"github.com/ternarybob/cursana/internal/services/prompts"
	"github.com/ternarybob/cursana/internal/services/transcripts"
)

// memoryStorage is an in-memory StorageManager for pipeline tests
type memoryStorage struct {
	sources        map[string]*models.Source
	sourcesByURL   map[string]*models.Source
	transcripts    map[string]*models.Transcript
	chunks         []*models.Chunk
	expansions     []*models.ExpandedChunk
	claims         []*models.Claim
	consensus      []*models.ConsensusClaim
	contradictions []*models.Contradiction
	courses        map[string]*models.Course
	links          []*models.CourseSourceLink
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		sources:      map[string]*models.Source{},
		sourcesByURL: map[string]*models.Source{},
		transcripts:  map[string]*models.Transcript{},
		courses:      map[string]*models.Course{},
	}
}

func (m *memoryStorage) SourceStorage() interfaces.SourceStorage         { return m }
func (m *memoryStorage) TranscriptStorage() interfaces.TranscriptStorage { return m }
func (m *memoryStorage) ChunkStorage() interfaces.ChunkStorage           { return m }
func (m *memoryStorage) ExpansionStorage() interfaces.ExpansionStorage   { return m }
func (m *memoryStorage) ClaimStorage() interfaces.ClaimStorage           { return m }
func (m *memoryStorage) CourseStorage() interfaces.CourseStorage         { return m }
func (m *memoryStorage) DB() interface{}                                 { return nil }
func (m *memoryStorage) Close() error                                    { return nil }

func (m *memoryStorage) SaveSource(source *models.Source) error {
	m.sources[source.ID] = source
	m.sourcesByURL[source.URL] = source
	return nil
}

func (m *memoryStorage) GetSource(id string) (*models.Source, error) {
	if source, ok := m.sources[id]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source %s not found", id)
}

func (m *memoryStorage) GetSourceByURL(url string) (*models.Source, error) {
	if source, ok := m.sourcesByURL[url]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source with URL %s not found", url)
}

func (m *memoryStorage) ListSources() ([]*models.Source, error) {
	var sources []*models.Source
	for _, source := range m.sources {
		sources = append(sources, source)
	}
	return sources, nil
}

func (m *memoryStorage) DeleteSource(id string) error {
	delete(m.sources, id)
	return nil
}

func (m *memoryStorage) DeleteOlderThan(cutoff time.Time) (int, error) { return 0, nil }
func (m *memoryStorage) CountSources() (int, error)                    { return len(m.sources), nil }

func (m *memoryStorage) SaveTranscript(transcript *models.Transcript) error {
	m.transcripts[transcript.ID] = transcript
	return nil
}

func (m *memoryStorage) GetTranscript(id string) (*models.Transcript, error) {
	if transcript, ok := m.transcripts[id]; ok {
		return transcript, nil
	}
	return nil, fmt.Errorf("transcript %s not found", id)
}

func (m *memoryStorage) GetTranscriptBySource(sourceID string) (*models.Transcript, error) {
	for _, transcript := range m.transcripts {
		if transcript.SourceID == sourceID {
			return transcript, nil
		}
	}
	return nil, fmt.Errorf("transcript for source %s not found", sourceID)
}

func (m *memoryStorage) CountTranscripts() (int, error) { return len(m.transcripts), nil }

func (m *memoryStorage) SaveChunks(chunks []*models.Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memoryStorage) GetChunk(id string) (*models.Chunk, error) {
	for _, chunk := range m.chunks {
		if chunk.ID == id {
			return chunk, nil
		}
	}
	return nil, fmt.Errorf("chunk %s not found", id)
}

func (m *memoryStorage) ListChunksBySource(sourceID string) ([]*models.Chunk, error) {
	var chunks []*models.Chunk
	for _, chunk := range m.chunks {
		if chunk.SourceID == sourceID {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func (m *memoryStorage) CountChunks() (int, error) { return len(m.chunks), nil }

func (m *memoryStorage) SaveExpandedChunks(chunks []*models.ExpandedChunk) error {
	m.expansions = append(m.expansions, chunks...)
	return nil
}

func (m *memoryStorage) GetExpandedChunk(id string) (*models.ExpandedChunk, error) {
	for _, expanded := range m.expansions {
		if expanded.ID == id {
			return expanded, nil
		}
	}
	return nil, fmt.Errorf("expanded chunk %s not found", id)
}

func (m *memoryStorage) ListExpandedChunksBySource(sourceID string) ([]*models.ExpandedChunk, error) {
	var expansions []*models.ExpandedChunk
	for _, expanded := range m.expansions {
		if expanded.SourceID == sourceID {
			expansions = append(expansions, expanded)
		}
	}
	return expansions, nil
}

func (m *memoryStorage) SaveClaims(claims []*models.Claim) error {
	m.claims = append(m.claims, claims...)
	return nil
}

func (m *memoryStorage) ListClaimsBySource(sourceID string) ([]*models.Claim, error) {
	var claims []*models.Claim
	for _, claim := range m.claims {
		if claim.SourceID == sourceID {
			claims = append(claims, claim)
		}
	}
	return claims, nil
}

func (m *memoryStorage) SaveConsensusClaims(claims []*models.ConsensusClaim) error {
	m.consensus = append(m.consensus, claims...)
	return nil
}

func (m *memoryStorage) ListConsensusClaims() ([]*models.ConsensusClaim, error) {
	return m.consensus, nil
}

func (m *memoryStorage) SaveContradictions(contradictions []*models.Contradiction) error {
	m.contradictions = append(m.contradictions, contradictions...)
	return nil
}

func (m *memoryStorage) ListContradictions() ([]*models.Contradiction, error) {
	return m.contradictions, nil
}

func (m *memoryStorage) SaveCourse(c *models.Course) error {
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStorage) GetCourse(id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("course %s not found", id)
}

func (m *memoryStorage) ListCourses() ([]*models.Course, error) {
	var courses []*models.Course
	for _, c := range m.courses {
		courses = append(courses, c)
	}
	return courses, nil
}

func (m *memoryStorage) SaveCourseSourceLinks(links []*models.CourseSourceLink) error {
	m.links = append(m.links, links...)
	return nil
}

func (m *memoryStorage) ListCourseSourceIDs(courseID string) ([]string, error) {
	var ids []string
	for _, link := range m.links {
		if link.CourseID == courseID {
			ids = append(ids, link.SourceID)
		}
	}
	return ids, nil
}

// fakeFetcher serves canned sources keyed by URL
type fakeFetcher struct {
	sources map[string]*models.Source
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*models.Source, error) {
	f.calls++
	if source, ok := f.sources[url]; ok {
		return source, nil
	}
	return nil, errors.New("fetch failed: " + url)
}

// fakeLLM returns fixed responses. Chat answers with claim triples, which
// degrades expansion (non-JSON) and feeds the direct extraction fallback.
type fakeLLM struct {
	chatResponse    string
	outlineResponse string
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding not supported")
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return f.chatResponse, nil
}

func (f *fakeLLM) ChatWithOptions(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	return f.outlineResponse, nil
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) ModelName() string                     { return "fake-model" }
func (f *fakeLLM) Close() error                          { return nil }

const (
	videoURL   = "file:///captions/raft.vtt"
	articleURL = "https://example.com/raft-explained"
)

func captionText() string {
	sentences := []string{
		"The leader election process in raft requires that a majority of the nodes agree on the current term and vote for a single candidate. ",
		"Once a leader is chosen it coordinates log replication by sending append entries to every follower in the cluster. ",
		"A quorum of acknowledgements is needed before any entry can be considered committed and applied to the state machine. ",
	}
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		for _, sentence := range sentences {
			sb.WriteString(sentence)
		}
	}
	return sb.String()
}

func articleHTML() string {
	var sb strings.Builder
	sb.WriteString("<html><body><article>")
	for i := 0; i < 10; i++ {
		sb.WriteString("<p>Consensus protocols such as raft keep replicated state machines consistent even when individual servers crash or messages are delayed across the network for long periods of time.</p>")
	}
	sb.WriteString("</article></body></html>")
	return sb.String()
}

func testVideoSource() *models.Source {
	return models.NewSource("src_video", models.SourceTypeVideo, videoURL, "Raft Lecture", captionText())
}

func testArticleSource() *models.Source {
	return models.NewSource("src_article", models.SourceTypeArticle, articleURL, "Raft Explained", articleHTML())
}

func newTestService(storage interfaces.StorageManager, fetchers *fakeFetcher, seeds *common.DiscoveryConfig) *Service {
	logger := common.GetLogger()
	config := common.NewDefaultConfig()
	config.Chunking.UseEmbeddings = false

	llm := &fakeLLM{
		chatResponse: `("raft", "elects", "a leader")
("raft", "requires", "a quorum")`,
		outlineResponse: `{
  "title": "Understanding Raft",
  "description": "Consensus explained",
  "sections": [{"id": "section-1", "title": "Overview", "content": "The basics"}],
  "glossary": ["quorum"]
}`,
	}

	promptManager := prompts.NewManager("", logger)

	return NewService(config, Deps{
		Storage:     storage,
		Discoverer:  discovery.NewConfigDiscoverer(seeds, logger),
		Captions:    fetchers,
		Articles:    fetchers,
		Transcripts: transcripts.NewService(logger),
		Chunker:     chunker.NewChunker(&config.Chunking, llm, logger),
		Expander:    expander.NewExpander(&config.Expansion, llm, promptManager, logger),
		Extractor:   consensus.NewExtractor(llm, promptManager, logger),
		Consensus:   consensus.NewBuilder(config.Consensus.SimilarityThreshold, llm, logger),
		Structure:   course.NewStructureGenerator(&config.Course, llm, promptManager, logger),
		Builder:     course.NewBuilder(&config.Course, logger),
	}, logger)
}

func TestRunCreatesCourse(t *testing.T) {
	storage := newMemoryStorage()
	fetchers := &fakeFetcher{sources: map[string]*models.Source{
		videoURL:   testVideoSource(),
		articleURL: testArticleSource(),
	}}
	seeds := &common.DiscoveryConfig{
		VideoURLs:   []string{videoURL},
		ArticleURLs: []string{articleURL},
		MaxVideos:   3,
		MaxArticles: 3,
	}

	service := newTestService(storage, fetchers, seeds)
	built, err := service.Run(context.Background(), Request{Query: "raft consensus"})

	require.NoError(t, err)
	require.NotNil(t, built)
	assert.Equal(t, "Understanding Raft", built.Title)
	assert.Equal(t, "raft consensus", built.Query)
	require.NotEmpty(t, built.Sections)
	assert.ElementsMatch(t, []string{"src_video", "src_article"}, built.Sections[0].PrimarySourceIDs)

	// Every stage's output was persisted
	stored, err := storage.GetCourse(built.ID)
	require.NoError(t, err)
	assert.Equal(t, built.Title, stored.Title)
	assert.Len(t, storage.sources, 2)
	assert.Len(t, storage.transcripts, 2)
	for _, sourceID := range []string{"src_video", "src_article"} {
		transcript, err := storage.GetTranscriptBySource(sourceID)
		require.NoError(t, err)
		assert.NotEmpty(t, transcript.FullText())
	}
	assert.NotEmpty(t, storage.chunks)
	assert.NotEmpty(t, storage.expansions)
	assert.NotEmpty(t, storage.claims)

	linked, err := storage.ListCourseSourceIDs(built.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src_video", "src_article"}, linked)
}

func TestRunSkipsFailedFetches(t *testing.T) {
	storage := newMemoryStorage()
	fetchers := &fakeFetcher{sources: map[string]*models.Source{
		videoURL: testVideoSource(),
	}}
	seeds := &common.DiscoveryConfig{
		VideoURLs:   []string{videoURL},
		ArticleURLs: []string{"https://example.com/unreachable"},
		MaxVideos:   3,
		MaxArticles: 3,
	}

	service := newTestService(storage, fetchers, seeds)
	built, err := service.Run(context.Background(), Request{Query: "raft"})

	require.NoError(t, err)
	linked, err := storage.ListCourseSourceIDs(built.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"src_video"}, linked)
}

func TestRunFailsWithoutSources(t *testing.T) {
	storage := newMemoryStorage()
	fetchers := &fakeFetcher{sources: map[string]*models.Source{}}
	seeds := &common.DiscoveryConfig{MaxVideos: 3, MaxArticles: 3}

	service := newTestService(storage, fetchers, seeds)
	_, err := service.Run(context.Background(), Request{Query: "raft"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable sources")
	assert.Contains(t, err.Error(), `"raft"`)
	assert.Empty(t, storage.courses)
}

func TestRunFailsWhenAllTranscriptsInvalid(t *testing.T) {
	storage := newMemoryStorage()
	short := models.NewSource("src_short", models.SourceTypeVideo, videoURL, "Too Short", "only a few words here")
	fetchers := &fakeFetcher{sources: map[string]*models.Source{videoURL: short}}
	seeds := &common.DiscoveryConfig{VideoURLs: []string{videoURL}, MaxVideos: 3, MaxArticles: 3}

	service := newTestService(storage, fetchers, seeds)
	_, err := service.Run(context.Background(), Request{Query: "raft"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid transcripts")
	assert.Empty(t, storage.courses)
}

func TestRunServesCachedSources(t *testing.T) {
	storage := newMemoryStorage()
	require.NoError(t, storage.SaveSource(testVideoSource()))

	// Fetcher knows no URLs, so any fetch attempt would fail
	fetchers := &fakeFetcher{sources: map[string]*models.Source{}}
	seeds := &common.DiscoveryConfig{VideoURLs: []string{videoURL}, MaxVideos: 3, MaxArticles: 3}

	service := newTestService(storage, fetchers, seeds)
	built, err := service.Run(context.Background(), Request{Query: "raft"})

	require.NoError(t, err)
	assert.NotNil(t, built)
	assert.Zero(t, fetchers.calls)
}
