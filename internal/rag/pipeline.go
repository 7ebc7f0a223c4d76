// Package rag implements the document ingestion pipeline:
// extract -> split -> enrich -> batch-insert, with cache invalidation on
// every document store mutation.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"assistant/internal/cache"
	"assistant/internal/domain"
	"assistant/internal/rag/store"
)

const insertBatchSize = 32

// Extractor converts an uploaded file into plain-text documents.
type Extractor interface {
	Extract(filename, path string) ([]domain.Document, error)
}

// Splitter chunks a document into bounded windows.
type Splitter interface {
	Split(doc domain.Document) []domain.Document
}

// DocumentStore is the subset of the vector store the pipeline writes to.
type DocumentStore interface {
	Add(ctx context.Context, chunks []domain.Document) error
	DeleteBySource(ctx context.Context, source string) (bool, error)
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// Cache is the subset of the cache layer the pipeline uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
	InvalidateDocuments(ctx context.Context)
}

// Pipeline ingests and deletes documents against the vector store.
type Pipeline struct {
	extractor    Extractor
	splitter     Splitter
	store        DocumentStore
	cache        Cache
	docsFolder   string
	documentsTTL time.Duration
	logger       *zap.Logger
}

// NewPipeline wires the ingestion pipeline.
func NewPipeline(extractor Extractor, splitter Splitter, docStore DocumentStore, c Cache, docsFolder string, documentsTTL time.Duration, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor:    extractor,
		splitter:     splitter,
		store:        docStore,
		cache:        c,
		docsFolder:   docsFolder,
		documentsTTL: documentsTTL,
		logger:       logger,
	}
}

// SaveUpload persists an uploaded file into the docs folder and returns the
// on-disk path.
func (p *Pipeline) SaveUpload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(p.docsFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create docs folder: %w", err)
	}
	dst := filepath.Join(p.docsFolder, filepath.Base(filename))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return dst, nil
}

// IngestFile runs extract -> split -> enrich -> batch-insert for one file
// already present in the docs folder, then invalidates the document and
// retrieval cache namespaces. Extraction failures are reported as
// domain.ErrExtraction (or domain.ErrUnsupportedFile) so the API layer can
// distinguish them from indexing failures.
func (p *Pipeline) IngestFile(ctx context.Context, filename string) error {
	filePath := filepath.Join(p.docsFolder, filepath.Base(filename))

	docs, err := p.extractor.Extract(filename, filePath)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFile) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var chunks []domain.Document
	for _, doc := range docs {
		chunks = append(chunks, p.splitter.Split(doc)...)
	}
	enrichChunks(chunks, time.Now().UTC())

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := p.store.Add(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("failed to index batch %d-%d: %w", start, end, err)
		}
	}

	p.cache.InvalidateDocuments(ctx)
	p.logger.Info("document ingested",
		zap.String("filename", filename), zap.Int("chunks", len(chunks)))
	return nil
}

// enrichChunks stamps ingestion metadata on every chunk: UTC timestamp,
// file size in kilobytes, and a content-derived chunk id used for
// deterministic upserts and traceability.
func enrichChunks(chunks []domain.Document, now time.Time) {
	createdAt := now.Format(time.RFC3339)
	sizes := make(map[string]float64)

	for i := range chunks {
		meta := chunks[i].Metadata
		meta[domain.MetadataKeyCreatedAt] = createdAt

		source := chunks[i].Source()
		size, ok := sizes[source]
		if !ok {
			size = fileSizeKB(source)
			sizes[source] = size
		}
		meta[domain.MetadataKeyFileSize] = size
		meta[domain.MetadataKeyChunkID] = ChunkID(source, chunks[i].Content)
	}
}

// ChunkID derives a stable identifier from source and content. The same
// content for the same source always hashes to the same id.
func ChunkID(source, content string) string {
	sum := sha256.Sum256([]byte(source + content))
	return hex.EncodeToString(sum[:])[:32]
}

func fileSizeKB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return math.Round(float64(info.Size())/1024*100) / 100
}

// DeleteByName removes every chunk of the named document from the store and
// the backing file from disk. A missing file is a warning only: purging the
// index entries is the operation's actual contract. Returns false when no
// chunks matched.
func (p *Pipeline) DeleteByName(ctx context.Context, name string) (bool, error) {
	filePath := filepath.Join(p.docsFolder, filepath.Base(name))

	deleted, err := p.store.DeleteBySource(ctx, filePath)
	if err != nil {
		return false, fmt.Errorf("failed to delete chunks for %s: %w", name, err)
	}
	if !deleted {
		return false, nil
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			p.logger.Warn("file not found on disk, index cleanup completed",
				zap.String("path", filePath))
		} else {
			p.logger.Warn("failed to remove file", zap.String("path", filePath), zap.Error(err))
		}
	} else {
		p.logger.Info("file deleted", zap.String("path", filePath))
	}

	p.cache.InvalidateDocuments(ctx)
	return true, nil
}

// ListDocuments returns the paginated listing, one row per uploaded file,
// served from the documents cache namespace when possible.
func (p *Pipeline) ListDocuments(ctx context.Context, limit int) ([]domain.DocumentInfo, error) {
	key := cache.DocumentsKey(fmt.Sprintf("limit=%d", limit))

	var cached []domain.DocumentInfo
	if p.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	records, err := p.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	infos := make([]domain.DocumentInfo, 0, len(records))
	for _, r := range records {
		source, _ := r.Metadata[domain.MetadataKeySource].(string)
		date, _ := r.Metadata[domain.MetadataKeyCreatedAt].(string)
		size := toFloat(r.Metadata[domain.MetadataKeyFileSize])
		if source == "" {
			source = "unknown"
		}
		infos = append(infos, domain.DocumentInfo{
			Source: path.Base(source),
			Date:   date,
			Size:   size,
		})
	}

	p.cache.SetJSON(ctx, key, infos, p.documentsTTL)
	return infos, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
