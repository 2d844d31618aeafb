package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	source     interfaces.SourceStorage
	transcript interfaces.TranscriptStorage
	chunk      interfaces.ChunkStorage
	expansion  interfaces.ExpansionStorage
	claim      interfaces.ClaimStorage
	course     interfaces.CourseStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		source:     NewSourceStorage(db, logger),
		transcript: NewTranscriptStorage(db, logger),
		chunk:      NewChunkStorage(db, logger),
		expansion:  NewExpansionStorage(db, logger),
		claim:      NewClaimStorage(db, logger),
		course:     NewCourseStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// SourceStorage returns the Source storage interface
func (m *Manager) SourceStorage() interfaces.SourceStorage {
	return m.source
}

// TranscriptStorage returns the Transcript storage interface
func (m *Manager) TranscriptStorage() interfaces.TranscriptStorage {
	return m.transcript
}

// ChunkStorage returns the Chunk storage interface
func (m *Manager) ChunkStorage() interfaces.ChunkStorage {
	return m.chunk
}

// ExpansionStorage returns the ExpandedChunk storage interface
func (m *Manager) ExpansionStorage() interfaces.ExpansionStorage {
	return m.expansion
}

// ClaimStorage returns the Claim storage interface
func (m *Manager) ClaimStorage() interfaces.ClaimStorage {
	return m.claim
}

// CourseStorage returns the Course storage interface
func (m *Manager) CourseStorage() interfaces.CourseStorage {
	return m.course
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
