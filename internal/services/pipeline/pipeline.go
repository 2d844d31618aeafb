// Package pipeline orchestrates course creation end to end: discovery,
// ingestion, normalization, chunking, expansion, claim reconciliation, and
// course assembly, persisting each stage's output as it completes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/chunker"
	"github.com/ternarybob/cursana/internal/services/consensus"
	"github.com/ternarybob/cursana/internal/services/course"
	"github.com/ternarybob/cursana/internal/services/expander"
	"github.com/ternarybob/cursana/internal/services/transcripts"
)

// Request describes one course creation run
type Request struct {
	Query       string
	MaxVideos   int
	MaxArticles int
	Difficulty  string
}

// Deps carries the stage services the pipeline coordinates
type Deps struct {
	Storage     interfaces.StorageManager
	Discoverer  interfaces.Discoverer
	Captions    interfaces.Fetcher
	Articles    interfaces.Fetcher
	Transcripts *transcripts.Service
	Chunker     *chunker.Chunker
	Expander    *expander.Expander
	Extractor   *consensus.Extractor
	Consensus   *consensus.Builder
	Structure   *course.StructureGenerator
	Builder     *course.Builder
}

// Service runs the course creation pipeline. A run either persists a complete
// course or fails before any course record is written; intermediate artifacts
// (sources, chunks, claims) are persisted as they are produced so later runs
// can reuse them.
type Service struct {
	config *common.Config
	deps   Deps
	logger arbor.ILogger
}

// NewService creates a pipeline service
func NewService(config *common.Config, deps Deps, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		deps:   deps,
		logger: logger,
	}
}

// Run executes the full pipeline for a query and returns the persisted course.
func (s *Service) Run(ctx context.Context, req Request) (*models.Course, error) {
	started := time.Now()
	s.logger.Info().
		Str("query", req.Query).
		Int("max_videos", req.MaxVideos).
		Int("max_articles", req.MaxArticles).
		Msg("Starting course creation pipeline")

	sources, err := s.gatherSources(ctx, req)
	if err != nil {
		return nil, err
	}

	validTranscripts, err := s.normalizeSources(req.Query, sources)
	if err != nil {
		return nil, err
	}

	allChunks, err := s.chunkTranscripts(ctx, req.Query, validTranscripts)
	if err != nil {
		return nil, err
	}

	expandedChunks := s.deps.Expander.ExpandBatch(ctx, allChunks, req.Query)
	if err := s.deps.Storage.ExpansionStorage().SaveExpandedChunks(expandedChunks); err != nil {
		return nil, fmt.Errorf("failed to persist expanded chunks: %w", err)
	}

	claims := s.collectClaims(ctx, expandedChunks, allChunks, validTranscripts)
	if len(claims) > 0 {
		if err := s.deps.Storage.ClaimStorage().SaveClaims(claims); err != nil {
			return nil, fmt.Errorf("failed to persist claims: %w", err)
		}
	}

	consensusResult, err := s.deps.Consensus.Build(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("consensus building failed: %w", err)
	}
	if err := s.persistConsensus(consensusResult); err != nil {
		return nil, err
	}

	outline := s.deps.Structure.Generate(ctx, req.Query, claims, sources)

	chunkByID := make(map[string]*models.Chunk, len(allChunks))
	for _, chunk := range allChunks {
		chunkByID[chunk.ID] = chunk
	}
	claimByID := make(map[string]*models.Claim, len(claims))
	for _, claim := range claims {
		claimByID[claim.ID] = claim
	}

	built := s.deps.Builder.Build(course.BuildInput{
		Query:           req.Query,
		Outline:         outline,
		ExpandedChunks:  expandedChunks,
		Chunks:          chunkByID,
		Sources:         sources,
		ConsensusClaims: consensusResult.ConsensusClaims,
		Contradictions:  consensusResult.Contradictions,
		Claims:          claimByID,
	})

	if err := s.persistCourse(built, sources); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("course_id", built.ID).
		Str("query", req.Query).
		Int("sources", len(sources)).
		Int("chunks", len(allChunks)).
		Int("claims", len(claims)).
		Dur("duration", time.Since(started)).
		Msg("Course creation pipeline completed")

	return built, nil
}

// gatherSources discovers candidate URLs and fetches each one, serving
// repeated URLs from the source cache. Per-URL failures are logged and
// skipped; a run with zero usable sources fails.
func (s *Service) gatherSources(ctx context.Context, req Request) ([]*models.Source, error) {
	discovered, err := s.deps.Discoverer.Discover(ctx, req.Query, req.MaxVideos, req.MaxArticles, req.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("source discovery failed: %w", err)
	}

	var sources []*models.Source
	for _, url := range discovered.VideoURLs {
		if source := s.fetchOne(ctx, s.deps.Captions, url); source != nil {
			sources = append(sources, source)
		}
	}
	for _, url := range discovered.ArticleURLs {
		if source := s.fetchOne(ctx, s.deps.Articles, url); source != nil {
			sources = append(sources, source)
		}
	}

	attempted := len(discovered.VideoURLs) + len(discovered.ArticleURLs)
	if len(sources) == 0 {
		return nil, fmt.Errorf(
			"no usable sources for query %q: attempted %d video and %d article candidates, fetched 0; check seed URLs and caption availability",
			req.Query, len(discovered.VideoURLs), len(discovered.ArticleURLs))
	}

	s.logger.Info().
		Str("query", req.Query).
		Int("attempted", attempted).
		Int("fetched", len(sources)).
		Msg("Sources gathered")

	return sources, nil
}

// fetchOne returns the cached source for a URL when present, otherwise
// fetches and persists it. Returns nil on failure.
func (s *Service) fetchOne(ctx context.Context, fetcher interfaces.Fetcher, url string) *models.Source {
	if cached, err := s.deps.Storage.SourceStorage().GetSourceByURL(url); err == nil && cached != nil {
		s.logger.Debug().Str("url", url).Str("source_id", cached.ID).Msg("Using cached source")
		return cached
	}

	source, err := fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Failed to fetch source, skipping")
		return nil
	}

	if err := s.deps.Storage.SourceStorage().SaveSource(source); err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Failed to persist source, skipping")
		return nil
	}
	return source
}

// normalizeSources converts raw sources into validated transcripts, persisting
// each one that passes validation. Sources that fail normalization or
// validation are dropped; a run with zero valid transcripts fails.
func (s *Service) normalizeSources(query string, sources []*models.Source) ([]*models.Transcript, error) {
	var valid []*models.Transcript
	for _, source := range sources {
		transcript, err := s.deps.Transcripts.Normalize(source)
		if err != nil {
			s.logger.Warn().Err(err).Str("source_id", source.ID).Str("url", source.URL).Msg("Normalization failed, dropping source")
			continue
		}

		validation := s.deps.Transcripts.Validate(transcript)
		if !validation.Valid {
			s.logger.Warn().
				Str("source_id", source.ID).
				Str("url", source.URL).
				Float64("quality_score", validation.QualityScore).
				Strs("issues", validation.Issues).
				Msg("Transcript failed validation, dropping source")
			continue
		}

		if err := s.deps.Storage.TranscriptStorage().SaveTranscript(transcript); err != nil {
			return nil, fmt.Errorf("failed to persist transcript for source %s: %w", source.ID, err)
		}
		valid = append(valid, transcript)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf(
			"no valid transcripts for query %q: %d sources fetched, 0 passed validation; sources need at least 200 words of readable text",
			query, len(sources))
	}
	return valid, nil
}

// chunkTranscripts splits each transcript into semantic chunks, repairs weak
// boundaries, and persists the result. A run that produces zero chunks fails.
func (s *Service) chunkTranscripts(ctx context.Context, query string, validTranscripts []*models.Transcript) ([]*models.Chunk, error) {
	var allChunks []*models.Chunk
	for _, transcript := range validTranscripts {
		chunks := s.deps.Chunker.Chunk(ctx, transcript)
		chunks = s.deps.Chunker.Repair(chunks)
		if len(chunks) == 0 {
			continue
		}
		if err := s.deps.Storage.ChunkStorage().SaveChunks(chunks); err != nil {
			return nil, fmt.Errorf("failed to persist chunks for source %s: %w", transcript.SourceID, err)
		}
		allChunks = append(allChunks, chunks...)
	}

	if len(allChunks) == 0 {
		return nil, fmt.Errorf(
			"no chunks produced for query %q from %d valid transcripts; transcripts may be too short to segment",
			query, len(validTranscripts))
	}
	return allChunks, nil
}

// collectClaims attributes the triples carried on expanded chunks to their
// sources. Sources whose expansions yielded no claims get a direct extraction
// pass over the transcript text.
func (s *Service) collectClaims(ctx context.Context, expandedChunks []*models.ExpandedChunk, allChunks []*models.Chunk, validTranscripts []*models.Transcript) []*models.Claim {
	chunkByID := make(map[string]*models.Chunk, len(allChunks))
	for _, chunk := range allChunks {
		chunkByID[chunk.ID] = chunk
	}

	var claims []*models.Claim
	claimedSources := map[string]struct{}{}
	for _, expanded := range expandedChunks {
		fromExpansion := consensus.FromExpansion(expanded, chunkByID[expanded.ChunkID])
		if len(fromExpansion) > 0 {
			claimedSources[expanded.SourceID] = struct{}{}
		}
		claims = append(claims, fromExpansion...)
	}

	for _, transcript := range validTranscripts {
		if _, ok := claimedSources[transcript.SourceID]; ok {
			continue
		}
		extracted, err := s.deps.Extractor.Extract(ctx, transcript.FullText(), transcript.SourceID)
		if err != nil {
			s.logger.Warn().Err(err).Str("source_id", transcript.SourceID).Msg("Direct claim extraction failed")
			continue
		}
		claims = append(claims, extracted...)
	}

	s.logger.Info().Int("claims", len(claims)).Msg("Claims collected")
	return claims
}

func (s *Service) persistConsensus(result *consensus.Result) error {
	if len(result.ConsensusClaims) > 0 {
		if err := s.deps.Storage.ClaimStorage().SaveConsensusClaims(result.ConsensusClaims); err != nil {
			return fmt.Errorf("failed to persist consensus claims: %w", err)
		}
	}
	if len(result.Contradictions) > 0 {
		if err := s.deps.Storage.ClaimStorage().SaveContradictions(result.Contradictions); err != nil {
			return fmt.Errorf("failed to persist contradictions: %w", err)
		}
	}
	return nil
}

func (s *Service) persistCourse(built *models.Course, sources []*models.Source) error {
	if err := s.deps.Storage.CourseStorage().SaveCourse(built); err != nil {
		return fmt.Errorf("failed to persist course: %w", err)
	}

	links := make([]*models.CourseSourceLink, 0, len(sources))
	for _, source := range sources {
		links = append(links, &models.CourseSourceLink{
			ID:        built.ID + ":" + source.ID,
			CourseID:  built.ID,
			SourceID:  source.ID,
			CreatedAt: time.Now(),
		})
	}
	if err := s.deps.Storage.CourseStorage().SaveCourseSourceLinks(links); err != nil {
		return fmt.Errorf("failed to persist course source links: %w", err)
	}
	return nil
}
