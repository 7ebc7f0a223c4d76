package rag

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"assistant/internal/domain"
	"assistant/internal/rag/extract"
	"assistant/internal/rag/splitter"
	"assistant/internal/rag/store"
)

type fakeStore struct {
	addBatches    [][]domain.Document
	addErr        error
	deleteMatched bool
	deleteErr     error
	deletedSource string
	records       []store.Record
	listErr       error
	listCalls     int
}

func (f *fakeStore) Add(_ context.Context, chunks []domain.Document) error {
	if f.addErr != nil {
		return f.addErr
	}
	batch := make([]domain.Document, len(chunks))
	copy(batch, chunks)
	f.addBatches = append(f.addBatches, batch)
	return nil
}

func (f *fakeStore) DeleteBySource(_ context.Context, source string) (bool, error) {
	f.deletedSource = source
	return f.deleteMatched, f.deleteErr
}

func (f *fakeStore) List(_ context.Context, _ int) ([]store.Record, error) {
	f.listCalls++
	return f.records, f.listErr
}

func (f *fakeStore) chunks() []domain.Document {
	var all []domain.Document
	for _, b := range f.addBatches {
		all = append(all, b...)
	}
	return all
}

type fakeCache struct {
	data          map[string][]byte
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) GetJSON(_ context.Context, key string, out any) bool {
	raw, ok := f.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	f.data[key] = raw
	return true
}

func (f *fakeCache) InvalidateDocuments(_ context.Context) {
	f.invalidations++
	f.data = map[string][]byte{}
}

func newTestPipeline(t *testing.T, st *fakeStore, c *fakeCache) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p := NewPipeline(
		extract.New(),
		splitter.New(100, 20),
		st,
		c,
		dir,
		5*time.Minute,
		zap.NewNop(),
	)
	return p, dir
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestFileEnrichesChunks(t *testing.T) {
	st := &fakeStore{}
	p, dir := newTestPipeline(t, st, newFakeCache())
	writeDoc(t, dir, "notes.txt", strings.Repeat("An interesting sentence. ", 30))

	require.NoError(t, p.IngestFile(context.Background(), "notes.txt"))

	chunks := st.chunks()
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, filepath.Join(dir, "notes.txt"), chunk.Metadata[domain.MetadataKeySource])
		ts, ok := chunk.Metadata[domain.MetadataKeyCreatedAt].(string)
		require.True(t, ok)
		_, err := time.Parse(time.RFC3339, ts)
		assert.NoError(t, err)
		assert.Greater(t, chunk.Metadata[domain.MetadataKeyFileSize], 0.0)
		assert.Len(t, chunk.Metadata[domain.MetadataKeyChunkID], 32)
	}
}

func TestIngestFileIdempotentChunkIDs(t *testing.T) {
	st := &fakeStore{}
	p, dir := newTestPipeline(t, st, newFakeCache())
	writeDoc(t, dir, "notes.txt", strings.Repeat("Stable content here. ", 30))

	require.NoError(t, p.IngestFile(context.Background(), "notes.txt"))
	first := chunkIDs(st.chunks())

	st.addBatches = nil
	require.NoError(t, p.IngestFile(context.Background(), "notes.txt"))
	second := chunkIDs(st.chunks())

	assert.Equal(t, first, second)
}

func chunkIDs(chunks []domain.Document) []string {
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		id, _ := c.Metadata[domain.MetadataKeyChunkID].(string)
		ids = append(ids, id)
	}
	return ids
}

func TestIngestFileBatchesInserts(t *testing.T) {
	st := &fakeStore{}
	p, dir := newTestPipeline(t, st, newFakeCache())
	// Enough text for well over insertBatchSize chunks of ~100 chars.
	writeDoc(t, dir, "big.txt", strings.Repeat("Plenty of words in this sentence. ", 400))

	require.NoError(t, p.IngestFile(context.Background(), "big.txt"))

	require.Greater(t, len(st.addBatches), 1)
	for _, batch := range st.addBatches {
		assert.LessOrEqual(t, len(batch), insertBatchSize)
	}
}

func TestIngestFileUnsupportedExtension(t *testing.T) {
	p, dir := newTestPipeline(t, &fakeStore{}, newFakeCache())
	writeDoc(t, dir, "image.png", "not really an image")

	err := p.IngestFile(context.Background(), "image.png")

	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestIngestFileMissingFileIsExtractionError(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeStore{}, newFakeCache())

	err := p.IngestFile(context.Background(), "ghost.txt")

	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestIngestFileInvalidatesCache(t *testing.T) {
	c := newFakeCache()
	p, dir := newTestPipeline(t, &fakeStore{}, c)
	writeDoc(t, dir, "notes.txt", "Some content.")

	require.NoError(t, p.IngestFile(context.Background(), "notes.txt"))

	assert.Equal(t, 1, c.invalidations)
}

func TestIngestFileIndexFailure(t *testing.T) {
	st := &fakeStore{addErr: assert.AnError}
	c := newFakeCache()
	p, dir := newTestPipeline(t, st, c)
	writeDoc(t, dir, "notes.txt", "Some content.")

	err := p.IngestFile(context.Background(), "notes.txt")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrExtraction)
	assert.Zero(t, c.invalidations, "failed ingestion must not invalidate caches")
}

func TestDeleteByNameNotFound(t *testing.T) {
	st := &fakeStore{deleteMatched: false}
	p, _ := newTestPipeline(t, st, newFakeCache())

	deleted, err := p.DeleteByName(context.Background(), "missing.pdf")

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteByNameRemovesFileAndInvalidates(t *testing.T) {
	st := &fakeStore{deleteMatched: true}
	c := newFakeCache()
	p, dir := newTestPipeline(t, st, c)
	writeDoc(t, dir, "notes.txt", "bye")

	deleted, err := p.DeleteByName(context.Background(), "notes.txt")

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), st.deletedSource)
	assert.NoFileExists(t, filepath.Join(dir, "notes.txt"))
	assert.Equal(t, 1, c.invalidations)
}

func TestDeleteByNameMissingFileIsNotFatal(t *testing.T) {
	st := &fakeStore{deleteMatched: true}
	p, _ := newTestPipeline(t, st, newFakeCache())

	deleted, err := p.DeleteByName(context.Background(), "gone.txt")

	require.NoError(t, err)
	assert.True(t, deleted, "index cleanup is the contract; a missing file is only a warning")
}

func TestListDocumentsMapsMetadata(t *testing.T) {
	st := &fakeStore{records: []store.Record{
		{ID: "1", Metadata: map[string]any{
			domain.MetadataKeySource:    "docs/report.pdf",
			domain.MetadataKeyCreatedAt: "2025-06-01T10:00:00Z",
			domain.MetadataKeyFileSize:  12.5,
		}},
	}}
	p, _ := newTestPipeline(t, st, newFakeCache())

	infos, err := p.ListDocuments(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "report.pdf", infos[0].Source)
	assert.Equal(t, "2025-06-01T10:00:00Z", infos[0].Date)
	assert.Equal(t, 12.5, infos[0].Size)
}

func TestListDocumentsServedFromCache(t *testing.T) {
	st := &fakeStore{records: []store.Record{
		{ID: "1", Metadata: map[string]any{domain.MetadataKeySource: "docs/a.txt"}},
	}}
	p, _ := newTestPipeline(t, st, newFakeCache())

	_, err := p.ListDocuments(context.Background(), 5)
	require.NoError(t, err)
	_, err = p.ListDocuments(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, st.listCalls, "second call must be served from cache")
}
