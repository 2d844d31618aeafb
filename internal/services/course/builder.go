package course

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

// transitions rotate between merged chunk explanations within a section
var transitions = []string{
	"\n\nBuilding on this concept, ",
	"\n\nAdditionally, ",
	"\n\nFurthermore, ",
	"\n\nMoreover, ",
}

const citationRelevance = 0.8

// Builder assembles an outline plus expanded chunks into a complete course
type Builder struct {
	config *common.CourseConfig
	logger arbor.ILogger
}

// NewBuilder creates a course builder
func NewBuilder(config *common.CourseConfig, logger arbor.ILogger) *Builder {
	return &Builder{
		config: config,
		logger: logger,
	}
}

// BuildInput carries everything section synthesis draws on
type BuildInput struct {
	Query           string
	Outline         *models.CourseOutline
	ExpandedChunks  []*models.ExpandedChunk
	Chunks          map[string]*models.Chunk // keyed by chunk ID, for timestamps
	Sources         []*models.Source
	ConsensusClaims []*models.ConsensusClaim
	Contradictions  []*models.Contradiction
	Claims          map[string]*models.Claim // keyed by claim ID, for contradiction sources
}

// Build assembles the full course. Every expanded chunk contributes to every
// section; the outline only supplies titles and ordering.
func (b *Builder) Build(input BuildInput) *models.Course {
	courseID := common.NewCourseID()

	sections := make([]models.CourseSection, 0, len(input.Outline.Sections))
	for i, planned := range input.Outline.Sections {
		title := planned.Title
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		section := b.synthesizeSection(title, input, i, courseID)
		sections = append(sections, section)
	}

	glossary := map[string]string{}
	for _, section := range sections {
		for term, definition := range section.GlossaryTerms {
			glossary[term] = definition
		}
	}

	totalWords := 0
	for _, expanded := range input.ExpandedChunks {
		totalWords += textutil.WordCount(expanded.ExpandedExplanation)
	}
	estimatedMinutes := totalWords / 200
	if estimatedMinutes < 10 {
		estimatedMinutes = 10
	}

	course := &models.Course{
		ID:               courseID,
		Query:            input.Query,
		Title:            input.Outline.Title,
		Description:      input.Outline.Description,
		Sections:         sections,
		Glossary:         glossary,
		EstimatedMinutes: estimatedMinutes,
		SectionCount:     len(sections),
		CreatedAt:        time.Now(),
	}

	b.logger.Info().
		Str("course_id", courseID).
		Str("query", input.Query).
		Int("sections", len(sections)).
		Int("estimated_minutes", estimatedMinutes).
		Msg("Assembled course")

	return course
}

// synthesizeSection merges chunk explanations into one section with
// takeaways, glossary, citations, and quality scores.
func (b *Builder) synthesizeSection(title string, input BuildInput, index int, courseID string) models.CourseSection {
	var contentParts []string
	glossaryTerms := map[string]string{}
	sourceSeen := map[string]struct{}{}
	var sourceIDs []string

	for _, expanded := range input.ExpandedChunks {
		if expanded.ExpandedExplanation != "" {
			contentParts = append(contentParts, expanded.ExpandedExplanation)
		} else {
			contentParts = append(contentParts, expanded.OriginalText)
		}

		for term, definition := range expanded.Definitions {
			glossaryTerms[term] = definition
		}

		if sourceID := common.ChunkSourceID(expanded.ChunkID); sourceID != "" {
			if _, ok := sourceSeen[sourceID]; !ok {
				sourceSeen[sourceID] = struct{}{}
				sourceIDs = append(sourceIDs, sourceID)
			}
		}
	}

	content := mergeWithTransitions(contentParts)
	takeaways := b.keyTakeaways(input.ExpandedChunks)

	section := models.CourseSection{
		ID:                common.NewSectionID(courseID),
		CourseID:          courseID,
		Index:             index,
		Title:             title,
		Content:           content,
		KeyTakeaways:      takeaways,
		GlossaryTerms:     glossaryTerms,
		PracticeQuestions: b.practiceQuestions(takeaways),
		Citations:         b.citations(sourceIDs, input),
		PrimarySourceIDs:  sourceIDs,
		ReadingMinutes:    textutil.ReadingMinutes(content, 200),
		Difficulty:        models.DifficultyIntermediate,
		CreatedAt:         time.Now(),
	}

	b.scoreSection(&section, input.ConsensusClaims)
	b.flagContradictions(&section, input)
	return section
}

// mergeWithTransitions joins parts with rotating transition phrases,
// lowercasing the first rune of continued parts to read mid-sentence.
func mergeWithTransitions(parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(parts[0])
	for i, part := range parts[1:] {
		if part == "" {
			continue
		}
		sb.WriteString(transitions[(i+1)%len(transitions)])
		sb.WriteString(lowerFirst(part))
	}
	return sb.String()
}

func lowerFirst(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// keyTakeaways collects the first two concepts per chunk, deduplicated in
// encounter order and truncated to the configured target.
func (b *Builder) keyTakeaways(expandedChunks []*models.ExpandedChunk) []string {
	target := b.config.TargetTakeaways
	if target <= 0 {
		target = 3
	}

	seen := map[string]struct{}{}
	takeaways := []string{}
	for _, expanded := range expandedChunks {
		concepts := expanded.KeyConcepts
		if len(concepts) > 2 {
			concepts = concepts[:2]
		}
		for _, concept := range concepts {
			if _, ok := seen[concept]; ok {
				continue
			}
			seen[concept] = struct{}{}
			takeaways = append(takeaways, concept)
		}
	}

	if len(takeaways) > target {
		takeaways = takeaways[:target]
	}
	return takeaways
}

// practiceQuestions derives one self-check question per takeaway
func (b *Builder) practiceQuestions(takeaways []string) []models.PracticeQuestion {
	count := b.config.TargetQuestions
	if count <= 0 {
		count = 3
	}
	if len(takeaways) < count {
		count = len(takeaways)
	}

	questions := make([]models.PracticeQuestion, 0, count)
	for _, takeaway := range takeaways[:count] {
		questions = append(questions, models.PracticeQuestion{
			Question: fmt.Sprintf("What is a key concept about %s?", takeaway),
			Answer:   fmt.Sprintf("This concept relates to %s as explained in the section.", takeaway),
		})
	}
	return questions
}

// citations builds one citation per distinct source, carrying the earliest
// chunk timestamp for timed sources.
func (b *Builder) citations(sourceIDs []string, input BuildInput) []models.Citation {
	sourceMap := map[string]*models.Source{}
	for _, source := range input.Sources {
		sourceMap[source.ID] = source
	}

	earliest := map[string]*int64{}
	for _, expanded := range input.ExpandedChunks {
		chunk, ok := input.Chunks[expanded.ChunkID]
		if !ok || chunk.StartMs == nil {
			continue
		}
		sourceID := common.ChunkSourceID(expanded.ChunkID)
		if current, ok := earliest[sourceID]; !ok || *chunk.StartMs < *current {
			earliest[sourceID] = chunk.StartMs
		}
	}

	citations := make([]models.Citation, 0, len(sourceIDs))
	for _, sourceID := range sourceIDs {
		source, ok := sourceMap[sourceID]
		if !ok {
			continue
		}

		citation := models.Citation{
			SourceID:       sourceID,
			SourceType:     source.Type,
			Title:          source.Title,
			URL:            source.URL,
			RelevanceScore: citationRelevance,
		}
		if ts := earliest[sourceID]; ts != nil {
			citation.TimestampMs = ts
			citation.TimestampFormatted = textutil.FormatTimestamp(*ts)
		}
		citations = append(citations, citation)
	}
	return citations
}

// scoreSection computes coherence, coverage, and confidence for a section
func (b *Builder) scoreSection(section *models.CourseSection, consensusClaims []*models.ConsensusClaim) {
	minWords := b.config.MinSectionWords
	if minWords <= 0 {
		minWords = 100
	}

	coherence := 0.8
	if textutil.WordCount(section.Content) >= minWords {
		coherence += 0.1
	}
	if len(section.KeyTakeaways) >= 3 {
		coherence += 0.1
	}
	if coherence > 1.0 {
		coherence = 1.0
	}
	section.CoherenceScore = coherence

	coverage := float64(len(section.PrimarySourceIDs)) / 3
	if coverage > 1.0 {
		coverage = 1.0
	}
	section.CoverageScore = coverage

	confidence := 0.9
	if len(consensusClaims) > 0 {
		sectionSources := map[string]struct{}{}
		for _, sourceID := range section.PrimarySourceIDs {
			sectionSources[sourceID] = struct{}{}
		}

		alignedSum := 0.0
		alignedCount := 0
		for _, consensus := range consensusClaims {
			for _, sourceID := range consensus.SupportSourceIDs {
				if _, ok := sectionSources[sourceID]; ok {
					conf := consensus.Confidence
					if conf == 0 {
						conf = 0.8
					}
					alignedSum += conf
					alignedCount++
					break
				}
			}
		}
		if alignedCount > 0 {
			confidence = 0.7 + 0.3*(alignedSum/float64(alignedCount))
			if confidence > 1.0 {
				confidence = 1.0
			}
		}
	}
	section.ConfidenceScore = confidence
}

// flagContradictions marks the section when both sides of a detected
// contradiction trace back to the section's sources.
func (b *Builder) flagContradictions(section *models.CourseSection, input BuildInput) {
	if len(input.Contradictions) == 0 || len(input.Claims) == 0 {
		return
	}

	sectionSources := map[string]struct{}{}
	for _, sourceID := range section.PrimarySourceIDs {
		sectionSources[sourceID] = struct{}{}
	}

	var notes []string
	for _, contradiction := range input.Contradictions {
		claimA, okA := input.Claims[contradiction.ClaimID1]
		claimB, okB := input.Claims[contradiction.ClaimID2]
		if !okA || !okB {
			continue
		}
		_, inA := sectionSources[claimA.SourceID]
		_, inB := sectionSources[claimB.SourceID]
		if inA && inB {
			section.HasContradictions = true
			notes = append(notes, contradiction.Reasoning)
		}
	}
	if len(notes) > 0 {
		section.ControversyNotes = "Sources disagree on some points. " + strings.Join(notes, " ")
	}
}
