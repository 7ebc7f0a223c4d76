// Package prompts loads prompt templates from the configured prompts
// directory, falling back to built-in defaults when a file is missing.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Prompt file names expected in the prompts directory.
const (
	SystemPromptFile  = "system.txt"
	RAGPromptFile     = "rag.txt"
	RewritePromptFile = "rag_rewrite.txt"
)

const defaultSystemPrompt = "You are a helpful AI assistant."

const defaultRAGPrompt = `Use the following document excerpts to answer the question. ` +
	`If the excerpts do not contain the answer, say that the documents do not cover it.

Context:
{context}

Question: {query}`

const defaultRewritePrompt = `Rewrite the following question into a short, ` +
	`keyword-rich search query optimized for document retrieval. ` +
	`Respond with the rewritten query only.

Question: {query}`

var defaults = map[string]string{
	SystemPromptFile:  defaultSystemPrompt,
	RAGPromptFile:     defaultRAGPrompt,
	RewritePromptFile: defaultRewritePrompt,
}

// Load reads the named prompt from dir. A missing or unreadable file is a
// warning, not an error: the built-in default is returned instead.
func Load(dir, name string, logger *zap.Logger) string {
	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("prompt file not available, using default",
			zap.String("path", path), zap.Error(err))
		return defaults[name]
	}
	return strings.TrimSpace(string(raw))
}

// RenderRAG fills the retrieval prompt template with the assembled context
// block and the original user query.
func RenderRAG(template, context, query string) string {
	out := strings.ReplaceAll(template, "{context}", context)
	return strings.ReplaceAll(out, "{query}", query)
}

// RenderRewrite fills the query-rewrite template with the raw user query.
func RenderRewrite(template, query string) string {
	return strings.ReplaceAll(template, "{query}", query)
}

// ContextBlock concatenates retrieved chunks into the context block fed to
// the model, each annotated with its originating source.
func ContextBlock(sources []SourcedText) string {
	var b strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&b, "Document: %s\n%s\n\n", s.Source, s.Text)
	}
	return b.String()
}

// SourcedText is one retrieved chunk with its source annotation.
type SourcedText struct {
	Source string
	Text   string
}
