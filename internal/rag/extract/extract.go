// Package extract turns uploaded files into plain-text documents. One loader
// per supported extension; anything else fails fast with
// domain.ErrUnsupportedFile.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"assistant/internal/domain"
)

// Extractor picks a loader by file extension and runs it.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supported reports whether a loader exists for the file name's extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".txt":
		return true
	}
	return false
}

// Extract reads the file at path and returns its textual content as one or
// more documents, each stamped with the source path. PDF files yield one
// document per page with a page number; DOCX and TXT yield a single
// document. A corrupt or unreadable file is an error, never partial output.
func (e *Extractor) Extract(filename, path string) ([]domain.Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".txt":
		return extractTXT(path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filename)
	}
}

func extractTXT(path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	return []domain.Document{{
		Content:  string(raw),
		Metadata: map[string]any{domain.MetadataKeySource: path},
	}}, nil
}
