package interfaces

import (
	"time"

	"github.com/ternarybob/cursana/internal/models"
)

// SourceStorage persists fetched sources. Sources act as a URL-keyed fetch
// cache: saving an already-known URL replaces the cached record.
type SourceStorage interface {
	SaveSource(source *models.Source) error
	GetSource(id string) (*models.Source, error)
	GetSourceByURL(url string) (*models.Source, error)
	ListSources() ([]*models.Source, error)
	DeleteSource(id string) error
	// DeleteOlderThan removes sources fetched before the cutoff and returns
	// the number deleted. Used by the cache staleness sweep.
	DeleteOlderThan(cutoff time.Time) (int, error)
	CountSources() (int, error)
}

// TranscriptStorage persists normalized transcripts. Transcripts are kept
// alongside their source so downstream stages can be re-run and debugged
// without re-fetching.
type TranscriptStorage interface {
	SaveTranscript(transcript *models.Transcript) error
	GetTranscript(id string) (*models.Transcript, error)
	GetTranscriptBySource(sourceID string) (*models.Transcript, error)
	CountTranscripts() (int, error)
}

// ChunkStorage persists semantic chunks
type ChunkStorage interface {
	SaveChunks(chunks []*models.Chunk) error
	GetChunk(id string) (*models.Chunk, error)
	// ListChunksBySource returns a source's chunks ordered by Index
	ListChunksBySource(sourceID string) ([]*models.Chunk, error)
	CountChunks() (int, error)
}

// ExpansionStorage persists LLM-expanded chunks
type ExpansionStorage interface {
	SaveExpandedChunks(chunks []*models.ExpandedChunk) error
	GetExpandedChunk(id string) (*models.ExpandedChunk, error)
	ListExpandedChunksBySource(sourceID string) ([]*models.ExpandedChunk, error)
}

// ClaimStorage persists extracted claims and their consensus artifacts
type ClaimStorage interface {
	SaveClaims(claims []*models.Claim) error
	ListClaimsBySource(sourceID string) ([]*models.Claim, error)
	SaveConsensusClaims(claims []*models.ConsensusClaim) error
	ListConsensusClaims() ([]*models.ConsensusClaim, error)
	SaveContradictions(contradictions []*models.Contradiction) error
	ListContradictions() ([]*models.Contradiction, error)
}

// CourseStorage persists assembled courses and their source links
type CourseStorage interface {
	SaveCourse(course *models.Course) error
	GetCourse(id string) (*models.Course, error)
	ListCourses() ([]*models.Course, error)
	SaveCourseSourceLinks(links []*models.CourseSourceLink) error
	ListCourseSourceIDs(courseID string) ([]string, error)
}

// StorageManager aggregates the entity stores and owns the database lifecycle
type StorageManager interface {
	SourceStorage() SourceStorage
	TranscriptStorage() TranscriptStorage
	ChunkStorage() ChunkStorage
	ExpansionStorage() ExpansionStorage
	ClaimStorage() ClaimStorage
	CourseStorage() CourseStorage

	// DB returns the underlying database handle
	DB() interface{}

	// Close closes the database connection
	Close() error
}
