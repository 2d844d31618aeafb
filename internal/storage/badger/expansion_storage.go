package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ExpansionStorage implements the ExpansionStorage interface for Badger
type ExpansionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewExpansionStorage creates a new ExpansionStorage instance
func NewExpansionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ExpansionStorage {
	return &ExpansionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ExpansionStorage) SaveExpandedChunks(chunks []*models.ExpandedChunk) error {
	now := time.Now()
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("expanded chunk ID is required")
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		if err := s.db.Store().Upsert(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to save expanded chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

func (s *ExpansionStorage) GetExpandedChunk(id string) (*models.ExpandedChunk, error) {
	var chunk models.ExpandedChunk
	if err := s.db.Store().Get(id, &chunk); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("expanded chunk not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get expanded chunk: %w", err)
	}
	return &chunk, nil
}

func (s *ExpansionStorage) ListExpandedChunksBySource(sourceID string) ([]*models.ExpandedChunk, error) {
	var chunks []models.ExpandedChunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return nil, fmt.Errorf("failed to list expanded chunks: %w", err)
	}

	result := make([]*models.ExpandedChunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}
