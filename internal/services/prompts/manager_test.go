package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cursana/internal/common"
)

func TestGetFallbackTemplates(t *testing.T) {
	manager := NewManager(t.TempDir(), common.GetLogger())

	for _, name := range []string{TemplateClaimExtraction, TemplateChunkExpansion, TemplateCourseStructure} {
		template, err := manager.Get(name)
		require.NoError(t, err, "template %s", name)
		assert.NotEmpty(t, template)
	}
}

func TestGetFileOverridesFallback(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom expansion prompt: {chunk_text}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunk_expansion.txt"), []byte(custom), 0644))

	manager := NewManager(dir, common.GetLogger())
	template, err := manager.Get(TemplateChunkExpansion)
	require.NoError(t, err)
	assert.Equal(t, custom, template)
}

func TestGetEmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "claim_extraction.txt"), []byte("   \n"), 0644))

	manager := NewManager(dir, common.GetLogger())
	template, err := manager.Get(TemplateClaimExtraction)
	require.NoError(t, err)
	assert.Contains(t, template, "knowledge extraction assistant")
}

func TestGetUnknownTemplate(t *testing.T) {
	manager := NewManager(t.TempDir(), common.GetLogger())
	_, err := manager.Get("does_not_exist")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	rendered := Render("Topic: {topic}, chunk: {chunk_text}", map[string]string{
		"topic":      "Go",
		"chunk_text": "goroutines",
	})
	assert.Equal(t, "Topic: Go, chunk: goroutines", rendered)
}

func TestRenderPreservesJSONBraces(t *testing.T) {
	template := `{topic} -> {"key": "value"}`
	rendered := Render(template, map[string]string{"topic": "X"})
	assert.Equal(t, `X -> {"key": "value"}`, rendered)
}
