// Package prompts loads LLM prompt templates from disk with built-in
// fallbacks for the templates the pipeline depends on.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
)

// Template names the pipeline requires
const (
	TemplateClaimExtraction = "claim_extraction"
	TemplateChunkExpansion  = "chunk_expansion"
	TemplateCourseStructure = "course_structure"
)

// Manager loads prompt templates by name from <dir>/<name>.txt, caching
// results. Missing or empty files fall back to the built-in templates.
type Manager struct {
	dir    string
	logger arbor.ILogger

	mu     sync.RWMutex
	loaded map[string]string
}

// NewManager creates a prompt manager rooted at the given directory
func NewManager(dir string, logger arbor.ILogger) *Manager {
	return &Manager{
		dir:    dir,
		logger: logger,
		loaded: map[string]string{},
	}
}

// Get returns the template for the given name. File contents win over the
// built-in fallback; a name with neither is an error.
func (m *Manager) Get(name string) (string, error) {
	m.mu.RLock()
	if template, ok := m.loaded[name]; ok {
		m.mu.RUnlock()
		return template, nil
	}
	m.mu.RUnlock()

	path := filepath.Join(m.dir, name+".txt")
	if data, err := os.ReadFile(path); err == nil {
		template := string(data)
		if strings.TrimSpace(template) != "" {
			m.cache(name, template)
			return template, nil
		}
		m.logger.Warn().Str("path", path).Msg("Prompt file is empty, using fallback")
	}

	if template, ok := fallbackTemplates[name]; ok {
		m.logger.Debug().Str("name", name).Msg("Using built-in prompt template")
		m.cache(name, template)
		return template, nil
	}

	return "", fmt.Errorf("prompt template not found and no fallback available: %s.txt (expected at %s)", name, path)
}

func (m *Manager) cache(name, template string) {
	m.mu.Lock()
	m.loaded[name] = template
	m.mu.Unlock()
}

// Render substitutes {key} placeholders in a template. Unknown placeholders
// are left untouched, which keeps JSON braces in templates intact.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

var fallbackTemplates = map[string]string{
	TemplateClaimExtraction: `You are a knowledge extraction assistant.

Given the following transcript chunk, extract ALL factual claims as structured triples.

TRANSCRIPT:
"""
{transcript_chunk}
"""

For each claim, output in this format:
("subject", "predicate", "object")

RULES:
1. Extract ONLY factual claims, not opinions or speculation
2. Keep claims atomic (one fact per triple)
3. Preserve technical terminology exactly

EXAMPLE:
Input: "Neural networks are inspired by biological neurons."
Output:
("Neural networks", "are inspired by", "biological neurons")

Now extract claims from the transcript above.`,

	TemplateChunkExpansion: `Expand this educational content chunk with detailed explanations.

CHUNK:
{chunk_text}

TOPIC: {topic}

PREVIOUS CONTEXT: {previous_context}

Provide a JSON response with:
{
  "expanded_explanation": "Detailed explanation (500-800 words)",
  "key_concepts": ["concept1", "concept2", ...],
  "definitions": {"term1": "definition1", ...},
  "examples": ["example1", "example2", ...],
  "prerequisites": ["prerequisite1", ...],
  "claims": [
    {"subject": "X", "predicate": "is", "object": "Y", "confidence": 0.95},
    ...
  ]
}`,

	TemplateCourseStructure: `You are an expert curriculum designer.

Create a structured learning course for: {topic}

VERIFIED CLAIMS:
{verified_claims}

Create a course outline with these sections:
1. Overview
2. Prerequisites
3. Fundamentals
4. Examples
5. Summary

Output as JSON with title, description, and sections array.`,
}
