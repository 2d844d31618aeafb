package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewSourceID generates a unique source ID with the "src_" prefix
// Format: src_<uuid>
func NewSourceID() string {
	return "src_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID that embeds its source ID.
// Format: chunk_<sourceID>_<12 hex chars>
func NewChunkID(sourceID string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "chunk_" + sourceID + "_" + hex[:12]
}

// ChunkSourceID extracts the source ID embedded in a chunk ID.
// Returns "" when the ID does not follow the chunk_<sourceID>_<hex> format.
func ChunkSourceID(chunkID string) string {
	if !strings.HasPrefix(chunkID, "chunk_") {
		return ""
	}
	rest := strings.TrimPrefix(chunkID, "chunk_")
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return ""
	}
	return rest[:idx]
}

// NewSegmentID generates a short segment ID with the "seg_" prefix
// Format: seg_<8 hex chars>
func NewSegmentID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "seg_" + hex[:8]
}

// NewExpansionID generates a unique expanded chunk ID with the "exp_" prefix
// Format: exp_<12 hex chars>
func NewExpansionID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "exp_" + hex[:12]
}

// NewClaimID generates a unique claim ID with the "claim_" prefix
func NewClaimID() string {
	return "claim_" + uuid.New().String()
}

// NewConsensusID generates a unique consensus claim ID with the "consensus_" prefix
func NewConsensusID() string {
	return "consensus_" + uuid.New().String()
}

// NewContradictionID generates a unique contradiction ID with the "contradiction_" prefix
func NewContradictionID() string {
	return "contradiction_" + uuid.New().String()
}

// NewCourseID generates a unique course ID with the "course_" prefix
func NewCourseID() string {
	return "course_" + uuid.New().String()
}

// NewSectionID generates a course section ID that embeds its course ID.
// Format: sec_<courseID>_<8 hex chars>
func NewSectionID(courseID string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "sec_" + courseID + "_" + hex[:8]
}
