package consensus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

// Builder clusters semantically equivalent claims into consensus claims and
// flags contradictions. Clustering is greedy and online: each claim joins
// the first existing cluster whose centroid similarity meets the threshold,
// so input order matters and is preserved by callers.
type Builder struct {
	threshold float64
	llm       interfaces.LLMService
	logger    arbor.ILogger
}

// NewBuilder creates a consensus builder. llm may be nil, in which case the
// deterministic fallback embedding is used for every claim.
func NewBuilder(threshold float64, llm interfaces.LLMService, logger arbor.ILogger) *Builder {
	if threshold <= 0 {
		threshold = 0.85
	}
	return &Builder{
		threshold: threshold,
		llm:       llm,
		logger:    logger,
	}
}

// Result carries the consensus output for one pipeline run
type Result struct {
	ConsensusClaims []*models.ConsensusClaim
	Contradictions  []*models.Contradiction
}

type embeddedClaim struct {
	claim     *models.Claim
	embedding []float32
}

// Build clusters the claims and detects contradictions. Embedding failures
// per claim fall back to the deterministic char-code embedding.
func (b *Builder) Build(ctx context.Context, claims []*models.Claim) (*Result, error) {
	if len(claims) == 0 {
		return &Result{}, nil
	}

	enriched := make([]embeddedClaim, 0, len(claims))
	for _, claim := range claims {
		text := claimText(claim)
		embedding, err := b.embed(ctx, text)
		if err != nil {
			b.logger.Warn().Err(err).Str("claim_id", claim.ID).Msg("Embedding failed, using fallback embedding")
			embedding = textutil.FallbackEmbedding(text)
		}
		enriched = append(enriched, embeddedClaim{claim: claim, embedding: embedding})
	}

	var clusters [][]embeddedClaim
	for _, candidate := range enriched {
		added := false
		for i := range clusters {
			centroid := clusterCentroid(clusters[i])
			if textutil.CosineSimilarity(candidate.embedding, centroid) >= b.threshold {
				clusters[i] = append(clusters[i], candidate)
				added = true
				break
			}
		}
		if !added {
			clusters = append(clusters, []embeddedClaim{candidate})
		}
	}

	result := &Result{
		ConsensusClaims: make([]*models.ConsensusClaim, 0, len(clusters)),
		Contradictions:  b.detectContradictions(claims),
	}
	for _, cluster := range clusters {
		result.ConsensusClaims = append(result.ConsensusClaims, buildConsensusClaim(cluster))
	}

	b.logger.Info().
		Int("claims", len(claims)).
		Int("consensus_claims", len(result.ConsensusClaims)).
		Int("contradictions", len(result.Contradictions)).
		Msg("Built claim consensus")

	return result, nil
}

func (b *Builder) embed(ctx context.Context, text string) ([]float32, error) {
	if b.llm == nil {
		return textutil.FallbackEmbedding(text), nil
	}
	return b.llm.Embed(ctx, text)
}

func claimText(claim *models.Claim) string {
	return strings.TrimSpace(claim.Subject + " " + claim.Predicate + " " + claim.Object)
}

// clusterCentroid averages member embeddings over the longest member length,
// treating missing dimensions as zero.
func clusterCentroid(cluster []embeddedClaim) []float32 {
	if len(cluster) == 0 {
		return nil
	}

	maxLen := 0
	for _, member := range cluster {
		if len(member.embedding) > maxLen {
			maxLen = len(member.embedding)
		}
	}

	centroid := make([]float32, maxLen)
	for _, member := range cluster {
		for i, val := range member.embedding {
			centroid[i] += val
		}
	}
	for i := range centroid {
		centroid[i] /= float32(len(cluster))
	}
	return centroid
}

// buildConsensusClaim takes the canonical triple from the first member,
// deduplicates source IDs, and averages confidence capped at 1.0.
func buildConsensusClaim(cluster []embeddedClaim) *models.ConsensusClaim {
	primary := cluster[0].claim

	supportIDs := make([]string, 0, len(cluster))
	sourceSeen := map[string]struct{}{}
	var sourceIDs []string
	confidenceSum := 0.0

	for _, member := range cluster {
		supportIDs = append(supportIDs, member.claim.ID)
		if member.claim.SourceID != "" {
			if _, ok := sourceSeen[member.claim.SourceID]; !ok {
				sourceSeen[member.claim.SourceID] = struct{}{}
				sourceIDs = append(sourceIDs, member.claim.SourceID)
			}
		}
		confidence := member.claim.Confidence
		if confidence == 0 {
			confidence = 0.8
		}
		confidenceSum += confidence
	}

	confidence := confidenceSum / float64(len(cluster))
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &models.ConsensusClaim{
		ID:               common.NewConsensusID(),
		Subject:          primary.Subject,
		Predicate:        primary.Predicate,
		Object:           primary.Object,
		SupportClaimIDs:  supportIDs,
		SupportSourceIDs: sourceIDs,
		SupportCount:     len(cluster),
		Confidence:       confidence,
		CreatedAt:        time.Now(),
	}
}

var negationMarkers = []string{"not ", "no ", "false", "never", "none"}

// detectContradictions groups claims by lowercased (subject, predicate) and
// flags pairs whose objects differ where exactly one side carries a
// negation marker. Pairs are deduplicated by sorted claim-id pair.
func (b *Builder) detectContradictions(claims []*models.Claim) []*models.Contradiction {
	type groupKey struct {
		subject   string
		predicate string
	}

	grouped := map[groupKey][]*models.Claim{}
	var keyOrder []groupKey
	for _, claim := range claims {
		key := groupKey{
			subject:   strings.ToLower(claim.Subject),
			predicate: strings.ToLower(claim.Predicate),
		}
		if _, ok := grouped[key]; !ok {
			keyOrder = append(keyOrder, key)
		}
		grouped[key] = append(grouped[key], claim)
	}

	var contradictions []*models.Contradiction
	seenPairs := map[string]struct{}{}

	for _, key := range keyOrder {
		group := grouped[key]
		for i, claimA := range group {
			for _, claimB := range group[i+1:] {
				pair := []string{claimA.ID, claimB.ID}
				sort.Strings(pair)
				pairKey := pair[0] + "|" + pair[1]
				if _, ok := seenPairs[pairKey]; ok {
					continue
				}

				if isContradictory(claimA, claimB) {
					contradictions = append(contradictions, &models.Contradiction{
						ID:        common.NewContradictionID(),
						ClaimID1:  claimA.ID,
						ClaimID2:  claimB.ID,
						Reasoning: fmt.Sprintf("Conflicting objects for '%s %s'.", key.subject, key.predicate),
						CreatedAt: time.Now(),
					})
					seenPairs[pairKey] = struct{}{}
				}
			}
		}
	}
	return contradictions
}

// isContradictory requires differing objects with exactly one side negated
func isContradictory(a, b *models.Claim) bool {
	objA := strings.ToLower(a.Object)
	objB := strings.ToLower(b.Object)
	if objA == objB {
		return false
	}

	aNeg := containsNegation(objA)
	bNeg := containsNegation(objB)
	return aNeg != bNeg
}

func containsNegation(object string) bool {
	for _, marker := range negationMarkers {
		if strings.Contains(object, marker) {
			return true
		}
	}
	return false
}
