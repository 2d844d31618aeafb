package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SourceStorage implements the SourceStorage interface for Badger
type SourceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSourceStorage creates a new SourceStorage instance
func NewSourceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SourceStorage {
	return &SourceStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSource upserts a source. When the URL is already cached under a
// different ID, the existing record is replaced so the URL stays unique.
func (s *SourceStorage) SaveSource(source *models.Source) error {
	if source.ID == "" {
		return fmt.Errorf("source ID is required")
	}
	if source.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	if existing, err := s.GetSourceByURL(source.URL); err == nil && existing.ID != source.ID {
		if err := s.DeleteSource(existing.ID); err != nil {
			return fmt.Errorf("failed to replace cached source for %s: %w", source.URL, err)
		}
	}

	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(source.ID, source); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}
	return nil
}

func (s *SourceStorage) GetSource(id string) (*models.Source, error) {
	var source models.Source
	if err := s.db.Store().Get(id, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("source not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

func (s *SourceStorage) GetSourceByURL(url string) (*models.Source, error) {
	var sources []models.Source
	err := s.db.Store().Find(&sources, badgerhold.Where("URL").Eq(url))
	if err != nil {
		return nil, fmt.Errorf("failed to find source: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("source not found for URL: %s", url)
	}
	return &sources[0], nil
}

func (s *SourceStorage) ListSources() ([]*models.Source, error) {
	var sources []models.Source
	if err := s.db.Store().Find(&sources, nil); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	result := make([]*models.Source, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result, nil
}

func (s *SourceStorage) DeleteSource(id string) error {
	if err := s.db.Store().Delete(id, &models.Source{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}

// DeleteOlderThan removes sources fetched before the cutoff
func (s *SourceStorage) DeleteOlderThan(cutoff time.Time) (int, error) {
	var stale []models.Source
	if err := s.db.Store().Find(&stale, badgerhold.Where("FetchedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find stale sources: %w", err)
	}

	deleted := 0
	for i := range stale {
		if err := s.DeleteSource(stale[i].ID); err != nil {
			s.logger.Warn().Err(err).Str("source_id", stale[i].ID).Msg("Failed to delete stale source")
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (s *SourceStorage) CountSources() (int, error) {
	count, err := s.db.Store().Count(&models.Source{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return int(count), nil
}
