package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TranscriptStorage implements the TranscriptStorage interface for Badger
type TranscriptStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTranscriptStorage creates a new TranscriptStorage instance
func NewTranscriptStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TranscriptStorage {
	return &TranscriptStorage{
		db:     db,
		logger: logger,
	}
}

// SaveTranscript upserts a transcript. Re-normalizing a source replaces its
// earlier transcript because transcript IDs derive from the source ID.
func (s *TranscriptStorage) SaveTranscript(transcript *models.Transcript) error {
	if transcript.ID == "" {
		return fmt.Errorf("transcript ID is required")
	}
	if transcript.SourceID == "" {
		return fmt.Errorf("transcript source ID is required")
	}

	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(transcript.ID, transcript); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (s *TranscriptStorage) GetTranscript(id string) (*models.Transcript, error) {
	var transcript models.Transcript
	if err := s.db.Store().Get(id, &transcript); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("transcript not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return &transcript, nil
}

func (s *TranscriptStorage) GetTranscriptBySource(sourceID string) (*models.Transcript, error) {
	var transcripts []models.Transcript
	err := s.db.Store().Find(&transcripts, badgerhold.Where("SourceID").Eq(sourceID))
	if err != nil {
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}
	if len(transcripts) == 0 {
		return nil, fmt.Errorf("transcript not found for source: %s", sourceID)
	}
	return &transcripts[0], nil
}

func (s *TranscriptStorage) CountTranscripts() (int, error) {
	count, err := s.db.Store().Count(&models.Transcript{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count transcripts: %w", err)
	}
	return int(count), nil
}
