package models

import (
	"time"
)

// Claim is a source-attributed factual assertion as a (subject, predicate,
// object) triple. TimestampMs points at the supporting moment in timed sources.
type Claim struct {
	ID          string  `json:"id"` // claim_{uuid}
	SourceID    string  `json:"source_id"`
	Subject     string  `json:"subject"`
	Predicate   string  `json:"predicate"`
	Object      string  `json:"object"`
	Confidence  float64 `json:"confidence"`
	TimestampMs *int64  `json:"timestamp_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ConsensusClaim is a cluster of semantically equivalent claims from one or
// more sources. The canonical triple comes from the first clustered member.
type ConsensusClaim struct {
	ID        string `json:"id"` // consensus_{uuid}
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`

	SupportClaimIDs  []string `json:"support_claim_ids"`
	SupportSourceIDs []string `json:"support_source_ids"` // deduplicated
	SupportCount     int      `json:"support_count"`
	Confidence       float64  `json:"confidence"` // mean member confidence, capped at 1.0

	CreatedAt time.Time `json:"created_at"`
}

// Contradiction records a pair of claims asserting opposite things about the
// same subject and predicate.
type Contradiction struct {
	ID        string `json:"id"` // contradiction_{uuid}
	ClaimID1  string `json:"claim_id_1"`
	ClaimID2  string `json:"claim_id_2"`
	Reasoning string `json:"reasoning"`

	CreatedAt time.Time `json:"created_at"`
}
