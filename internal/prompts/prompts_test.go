package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SystemPromptFile), []byte("Custom system prompt.\n"), 0o644))

	got := Load(dir, SystemPromptFile, zap.NewNop())

	assert.Equal(t, "Custom system prompt.", got, "trailing whitespace is trimmed")
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	got := Load(t.TempDir(), RAGPromptFile, zap.NewNop())

	assert.Equal(t, defaults[RAGPromptFile], got)
	assert.Contains(t, got, "{context}")
	assert.Contains(t, got, "{query}")
}

func TestRenderRAG(t *testing.T) {
	out := RenderRAG("C: {context} Q: {query}", "some context", "some question")

	assert.Equal(t, "C: some context Q: some question", out)
}

func TestRenderRewrite(t *testing.T) {
	out := RenderRewrite("Rewrite this: {query}", "original question")

	assert.Equal(t, "Rewrite this: original question", out)
}

func TestContextBlock(t *testing.T) {
	block := ContextBlock([]SourcedText{
		{Source: "docs/a.pdf", Text: "first chunk"},
		{Source: "docs/b.txt", Text: "second chunk"},
	})

	assert.Equal(t, "Document: docs/a.pdf\nfirst chunk\n\nDocument: docs/b.txt\nsecond chunk\n\n", block)
}

func TestContextBlockEmpty(t *testing.T) {
	assert.Empty(t, ContextBlock(nil))
}
