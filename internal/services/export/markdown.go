// Package export renders assembled courses to Markdown and PDF files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/models"
)

// Service writes course exports to the configured directory
type Service struct {
	config *common.ExportConfig
	logger arbor.ILogger
}

// NewService creates an export service
func NewService(config *common.ExportConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Export writes the course in every configured format and returns the
// written file paths.
func (s *Service) Export(course *models.Course) ([]string, error) {
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", s.config.Dir, err)
	}

	markdown := RenderMarkdown(course)
	base := filepath.Join(s.config.Dir, exportFilename(course))

	var paths []string
	for _, format := range s.config.Formats {
		switch strings.ToLower(format) {
		case "markdown", "md":
			path := base + ".md"
			if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
				return paths, fmt.Errorf("failed to write markdown export: %w", err)
			}
			paths = append(paths, path)

		case "pdf":
			pdfBytes, err := RenderPDF(markdown, s.logger)
			if err != nil {
				return paths, fmt.Errorf("failed to render PDF export: %w", err)
			}
			path := base + ".pdf"
			if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
				return paths, fmt.Errorf("failed to write PDF export: %w", err)
			}
			paths = append(paths, path)

		default:
			s.logger.Warn().Str("format", format).Msg("Skipping unknown export format")
		}
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Strs("paths", paths).
		Msg("Exported course")

	return paths, nil
}

var filenameSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// exportFilename derives a filesystem-safe name from the course title
func exportFilename(course *models.Course) string {
	name := strings.ToLower(course.Title)
	name = filenameSanitizer.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = course.ID
	}
	return name
}

// RenderMarkdown renders a complete course as a markdown document
func RenderMarkdown(course *models.Course) string {
	var sb strings.Builder

	sb.WriteString("# " + course.Title + "\n\n")
	if course.Description != "" {
		sb.WriteString(course.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("*Estimated time: %d minutes. %d sections.*\n\n", course.EstimatedMinutes, course.SectionCount))

	for _, section := range course.Sections {
		sb.WriteString(fmt.Sprintf("## %d. %s\n\n", section.Index+1, section.Title))
		if section.Subtitle != "" {
			sb.WriteString("*" + section.Subtitle + "*\n\n")
		}
		sb.WriteString(section.Content + "\n\n")

		if len(section.KeyTakeaways) > 0 {
			sb.WriteString("### Key takeaways\n\n")
			for _, takeaway := range section.KeyTakeaways {
				sb.WriteString("- " + takeaway + "\n")
			}
			sb.WriteString("\n")
		}

		if len(section.PracticeQuestions) > 0 {
			sb.WriteString("### Check your understanding\n\n")
			for i, question := range section.PracticeQuestions {
				sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, question.Question))
			}
			sb.WriteString("\n")
		}

		if section.HasContradictions && section.ControversyNotes != "" {
			sb.WriteString("> **Note:** " + section.ControversyNotes + "\n\n")
		}

		if len(section.Citations) > 0 {
			sb.WriteString("### Sources\n\n")
			for _, citation := range section.Citations {
				line := "- [" + citationLabel(citation) + "](" + citation.URL + ")"
				if citation.TimestampFormatted != "" {
					line += " at " + citation.TimestampFormatted
				}
				sb.WriteString(line + "\n")
			}
			sb.WriteString("\n")
		}
	}

	if len(course.Glossary) > 0 {
		sb.WriteString("## Glossary\n\n")
		terms := make([]string, 0, len(course.Glossary))
		for term := range course.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			sb.WriteString("- **" + term + "**: " + course.Glossary[term] + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func citationLabel(citation models.Citation) string {
	if citation.Title != "" {
		return citation.Title
	}
	return citation.URL
}
