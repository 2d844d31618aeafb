// Package course turns reconciled claims into a course outline and assembles
// the outline into citation-backed sections.
package course

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/prompts"
)

const maxClaimsInPrompt = 100

// StructureGenerator plans the high-level course outline from claims.
// LLM failures never fail the pipeline: a deterministic fallback outline is
// built from the claims themselves and marked UsedFallback.
type StructureGenerator struct {
	config  *common.CourseConfig
	llm     interfaces.LLMService
	prompts *prompts.Manager
	logger  arbor.ILogger
}

// NewStructureGenerator creates a course structure generator
func NewStructureGenerator(config *common.CourseConfig, llm interfaces.LLMService, promptManager *prompts.Manager, logger arbor.ILogger) *StructureGenerator {
	return &StructureGenerator{
		config:  config,
		llm:     llm,
		prompts: promptManager,
		logger:  logger,
	}
}

// Generate plans the course outline for a query. With no claims it returns a
// minimal single-section outline immediately.
func (g *StructureGenerator) Generate(ctx context.Context, query string, claims []*models.Claim, sources []*models.Source) *models.CourseOutline {
	if len(claims) == 0 {
		return &models.CourseOutline{
			Title:       "Introduction to " + query,
			Description: "A course about " + query,
			Sections: []models.OutlineSection{
				{
					ID:      "section-1",
					Title:   "Overview",
					Content: fmt.Sprintf("This course covers %s. More content will be available once sources are processed.", query),
				},
			},
			Glossary: []string{},
		}
	}

	template, err := g.prompts.Get(prompts.TemplateCourseStructure)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Failed to load course structure template")
		return g.fallbackOutline(query, claims, sources)
	}

	prompt := prompts.Render(template, map[string]string{
		"topic":           query,
		"verified_claims": formatClaimsForPrompt(claims, sources),
	})

	response, err := g.llm.ChatWithOptions(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	}, interfaces.ChatOptions{
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("query", query).Msg("Course structure generation failed, using fallback outline")
		return g.fallbackOutline(query, claims, sources)
	}

	outline, ok := parseOutlineJSON(response)
	if !ok {
		g.logger.Warn().Str("query", query).Msg("Unparseable course structure response, using fallback outline")
		return g.fallbackOutline(query, claims, sources)
	}

	if outline.Title == "" {
		outline.Title = "Introduction to " + query
	}
	if outline.Description == "" {
		outline.Description = "A comprehensive course about " + query
	}
	if outline.Sections == nil {
		outline.Sections = []models.OutlineSection{}
	}
	if outline.Glossary == nil {
		outline.Glossary = []string{}
	}
	return outline
}

// formatClaimsForPrompt renders claims as attributed bullet lines, capped to
// keep the prompt under token limits.
func formatClaimsForPrompt(claims []*models.Claim, sources []*models.Source) string {
	titles := map[string]string{}
	for _, source := range sources {
		title := source.Title
		if title == "" {
			title = source.URL
		}
		titles[source.ID] = title
	}

	limit := len(claims)
	if limit > maxClaimsInPrompt {
		limit = maxClaimsInPrompt
	}

	lines := make([]string, 0, limit)
	for _, claim := range claims[:limit] {
		sourceTitle, ok := titles[claim.SourceID]
		if !ok {
			sourceTitle = claim.SourceID
		}
		lines = append(lines, fmt.Sprintf("- (%s, %s, %s) [Source: %s]",
			claim.Subject, claim.Predicate, claim.Object, sourceTitle))
	}
	return strings.Join(lines, "\n")
}

// parseOutlineJSON extracts the first {...} block from the LLM response
func parseOutlineJSON(response string) (*models.CourseOutline, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var outline models.CourseOutline
	if err := json.Unmarshal([]byte(response[start:end+1]), &outline); err != nil {
		return nil, false
	}
	return &outline, true
}

// fallbackOutline builds a deterministic outline from the claims: an Overview
// naming the first subjects, then one section per distinct subject in
// first-encountered order.
func (g *StructureGenerator) fallbackOutline(query string, claims []*models.Claim, sources []*models.Source) *models.CourseOutline {
	bySubject := map[string][]*models.Claim{}
	var subjectOrder []string
	for _, claim := range claims {
		if _, ok := bySubject[claim.Subject]; !ok {
			subjectOrder = append(subjectOrder, claim.Subject)
		}
		bySubject[claim.Subject] = append(bySubject[claim.Subject], claim)
	}

	overviewSubjects := subjectOrder
	if len(overviewSubjects) > 5 {
		overviewSubjects = overviewSubjects[:5]
	}

	allSourceIDs := make([]string, 0, len(sources))
	for _, source := range sources {
		allSourceIDs = append(allSourceIDs, source.ID)
	}

	sections := []models.OutlineSection{
		{
			ID:    "section-1",
			Title: "Overview",
			Content: fmt.Sprintf("This course introduces %s. The following concepts are covered: %s.",
				query, strings.Join(overviewSubjects, ", ")),
			SourceIDs: allSourceIDs,
		},
	}

	sectionSubjects := subjectOrder
	if len(sectionSubjects) > 5 {
		sectionSubjects = sectionSubjects[:5]
	}
	for i, subject := range sectionSubjects {
		subjectClaims := bySubject[subject]
		limit := len(subjectClaims)
		if limit > 3 {
			limit = 3
		}

		sentences := make([]string, 0, limit)
		seen := map[string]struct{}{}
		var sourceIDs []string
		for _, claim := range subjectClaims {
			if _, ok := seen[claim.SourceID]; !ok && claim.SourceID != "" {
				seen[claim.SourceID] = struct{}{}
				sourceIDs = append(sourceIDs, claim.SourceID)
			}
		}
		for _, claim := range subjectClaims[:limit] {
			sentences = append(sentences, fmt.Sprintf("%s %s %s.", subject, claim.Predicate, claim.Object))
		}

		sections = append(sections, models.OutlineSection{
			ID:        fmt.Sprintf("section-%d", i+2),
			Title:     subject,
			Content:   strings.Join(sentences, " "),
			SourceIDs: sourceIDs,
		})
	}

	return &models.CourseOutline{
		Title:        "Introduction to " + query,
		Description:  "A course about " + query,
		Sections:     sections,
		Glossary:     []string{},
		UsedFallback: true,
	}
}
