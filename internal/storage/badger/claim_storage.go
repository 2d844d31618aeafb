package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ClaimStorage implements the ClaimStorage interface for Badger
type ClaimStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewClaimStorage creates a new ClaimStorage instance
func NewClaimStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ClaimStorage {
	return &ClaimStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ClaimStorage) SaveClaims(claims []*models.Claim) error {
	now := time.Now()
	for _, claim := range claims {
		if claim.ID == "" {
			return fmt.Errorf("claim ID is required")
		}
		if claim.CreatedAt.IsZero() {
			claim.CreatedAt = now
		}
		if err := s.db.Store().Upsert(claim.ID, claim); err != nil {
			return fmt.Errorf("failed to save claim %s: %w", claim.ID, err)
		}
	}
	return nil
}

func (s *ClaimStorage) ListClaimsBySource(sourceID string) ([]*models.Claim, error) {
	var claims []models.Claim
	if err := s.db.Store().Find(&claims, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	result := make([]*models.Claim, len(claims))
	for i := range claims {
		result[i] = &claims[i]
	}
	return result, nil
}

func (s *ClaimStorage) SaveConsensusClaims(claims []*models.ConsensusClaim) error {
	now := time.Now()
	for _, claim := range claims {
		if claim.ID == "" {
			return fmt.Errorf("consensus claim ID is required")
		}
		if claim.CreatedAt.IsZero() {
			claim.CreatedAt = now
		}
		if err := s.db.Store().Upsert(claim.ID, claim); err != nil {
			return fmt.Errorf("failed to save consensus claim %s: %w", claim.ID, err)
		}
	}
	return nil
}

func (s *ClaimStorage) ListConsensusClaims() ([]*models.ConsensusClaim, error) {
	var claims []models.ConsensusClaim
	if err := s.db.Store().Find(&claims, nil); err != nil {
		return nil, fmt.Errorf("failed to list consensus claims: %w", err)
	}

	result := make([]*models.ConsensusClaim, len(claims))
	for i := range claims {
		result[i] = &claims[i]
	}
	return result, nil
}

func (s *ClaimStorage) SaveContradictions(contradictions []*models.Contradiction) error {
	now := time.Now()
	for _, c := range contradictions {
		if c.ID == "" {
			return fmt.Errorf("contradiction ID is required")
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if err := s.db.Store().Upsert(c.ID, c); err != nil {
			return fmt.Errorf("failed to save contradiction %s: %w", c.ID, err)
		}
	}
	return nil
}

func (s *ClaimStorage) ListContradictions() ([]*models.Contradiction, error) {
	var contradictions []models.Contradiction
	if err := s.db.Store().Find(&contradictions, nil); err != nil {
		return nil, fmt.Errorf("failed to list contradictions: %w", err)
	}

	result := make([]*models.Contradiction, len(contradictions))
	for i := range contradictions {
		result[i] = &contradictions[i]
	}
	return result, nil
}
