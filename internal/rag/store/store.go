// Package store adapts a Qdrant collection into the document store used by
// ingestion and retrieval. Point ids are deterministic, derived from
// (source, content), so re-ingesting identical content upserts instead of
// duplicating.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"assistant/internal/domain"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Record is one raw index entry as returned by the paginated listing.
type Record struct {
	ID       string
	Metadata map[string]any
}

const (
	payloadContentKey  = "content"
	payloadMetadataKey = "metadata"
	sourceFilterKey    = "metadata." + domain.MetadataKeySource

	listOverfetch = 4
	mmrLambda     = 0.5
)

// Store wraps a Qdrant client plus an embedder.
type Store struct {
	client          *qdrant.Client
	embedder        Embedder
	collection      string
	vectorSize      int
	fetchMultiplier int
	logger          *zap.Logger
}

// New creates a store over an existing Qdrant client.
func New(client *qdrant.Client, embedder Embedder, collection string, vectorSize, fetchMultiplier int, logger *zap.Logger) *Store {
	if fetchMultiplier < 1 {
		fetchMultiplier = 5
	}
	return &Store{
		client:          client,
		embedder:        embedder,
		collection:      collection,
		vectorSize:      vectorSize,
		fetchMultiplier: fetchMultiplier,
		logger:          logger,
	}
}

// EnsureCollection lazily creates the backing collection with cosine
// distance, and recreates it when the existing collection was built with a
// different vector dimensionality.
func (s *Store) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return fmt.Errorf("failed to inspect collection: %w", err)
		}
		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size == uint64(s.vectorSize) {
			return nil
		}
		s.logger.Warn("collection dimensionality mismatch, recreating",
			zap.Uint64("existing", size), zap.Int("expected", s.vectorSize))
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to drop mismatched collection: %w", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// PointID derives the deterministic Qdrant point id for a chunk. Identical
// (source, content) pairs always map to the same id.
func PointID(source, content string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(source+content)).String()
}

// Add embeds and upserts chunks. Re-adding identical content for the same
// source overwrites the existing points.
func (s *Store) Add(ctx context.Context, chunks []domain.Document) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk: %w", err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(chunk.Source(), chunk.Content)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadContentKey:  chunk.Content,
				payloadMetadataKey: chunk.Metadata,
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Search embeds the query, over-fetches a candidate pool and applies
// maximal-marginal-relevance selection down to k results, balancing
// relevance against redundancy with already-selected chunks.
func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.Document, error) {
	if k <= 0 {
		k = 4
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(queryVec...),
		Limit:          qdrant.PtrOf(uint64(k * s.fetchMultiplier)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	vectors := make([][]float32, len(points))
	for i, p := range points {
		vectors[i] = p.GetVectors().GetVector().GetData()
	}
	selected := maximalMarginalRelevance(queryVec, vectors, mmrLambda, k)

	docs := make([]domain.Document, 0, len(selected))
	for _, idx := range selected {
		docs = append(docs, pointToDocument(points[idx].GetPayload()))
	}
	return docs, nil
}

// DeleteBySource removes every chunk whose metadata source exactly matches.
// Returns false when nothing matched; that is not an error.
func (s *Store) DeleteBySource(ctx context.Context, source string) (bool, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(sourceFilterKey, source)},
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to count points for %s: %w", source, err)
	}
	if count == 0 {
		return false, nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete points for %s: %w", source, err)
	}
	return true, nil
}

// List enumerates stored records, collapsed so that one row represents one
// uploaded file. It over-fetches a multiple of limit raw chunks and keeps
// the first-seen record per source until limit unique sources are collected
// or records run out.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 5
	}
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(limit * listOverfetch)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll collection: %w", err)
	}

	records := make([]Record, 0, len(points))
	for _, p := range points {
		records = append(records, Record{
			ID:       p.GetId().GetUuid(),
			Metadata: payloadMetadata(p.GetPayload()),
		})
	}
	return collapseBySource(records, limit), nil
}

// collapseBySource keeps the first-seen record per source, up to limit.
func collapseBySource(records []Record, limit int) []Record {
	seen := make(map[string]bool, limit)
	out := make([]Record, 0, limit)
	for _, r := range records {
		source, _ := r.Metadata[domain.MetadataKeySource].(string)
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

func pointToDocument(payload map[string]*qdrant.Value) domain.Document {
	content, _ := valueToAny(payload[payloadContentKey]).(string)
	return domain.Document{
		Content:  content,
		Metadata: payloadMetadata(payload),
	}
}

func payloadMetadata(payload map[string]*qdrant.Value) map[string]any {
	meta, _ := valueToAny(payload[payloadMetadataKey]).(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	return meta
}

func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_StructValue:
		m := make(map[string]any, len(k.StructValue.GetFields()))
		for name, field := range k.StructValue.GetFields() {
			m[name] = valueToAny(field)
		}
		return m
	case *qdrant.Value_ListValue:
		vals := k.ListValue.GetValues()
		list := make([]any, 0, len(vals))
		for _, item := range vals {
			list = append(list, valueToAny(item))
		}
		return list
	default:
		return nil
	}
}
