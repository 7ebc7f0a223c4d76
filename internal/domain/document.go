package domain

import "path"

// Metadata keys attached to every stored chunk
const (
	MetadataKeySource    = "source"
	MetadataKeyCreatedAt = "created_at"
	MetadataKeyFileSize  = "file_size"
	MetadataKeyPage      = "page"
	MetadataKeyChunkID   = "chunk_id"
)

// Document is a unit of retrievable content. Before splitting it holds the
// full extracted text of a file; after splitting each chunk is itself a
// Document carrying the metadata of its source.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Source returns the source path recorded in the document metadata,
// or "unknown" when absent.
func (d Document) Source() string {
	if v, ok := d.Metadata[MetadataKeySource].(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// SourceName returns the file name portion of the source path.
func (d Document) SourceName() string {
	return path.Base(d.Source())
}

// CloneMetadata returns a shallow copy of the metadata map so that chunks
// can be enriched without mutating their siblings.
func (d Document) CloneMetadata() map[string]any {
	m := make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		m[k] = v
	}
	return m
}

// DocumentInfo is one row of the document listing, one per uploaded file.
type DocumentInfo struct {
	Source string  `json:"source"`
	Date   string  `json:"date"`
	Size   float64 `json:"size"`
}
