package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache key namespace prefixes. Invalidation is prefix-wide.
const (
	DocumentsKeyPrefix     = "documents:"
	ConversationKeyPrefix  = "conversation:"
	RetrieveKeyPrefix      = "rag_retrieve:"
	OptimizeQueryKeyPrefix = "optimize_query:"
	GenerateKeyPrefix      = "generate:"
)

func hashNormalized(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:32]
}

// ConversationKey returns the stable cache key for a conversation turn,
// normalized so that trivially different phrasings of the same prompt hit
// the same entry.
func ConversationKey(prompt string) string {
	return ConversationKeyPrefix + hashNormalized(prompt)
}

// RetrieveKey returns the stable cache key for a retrieval query.
func RetrieveKey(query string) string {
	return RetrieveKeyPrefix + hashNormalized(query)
}

// OptimizeQueryKey returns the stable cache key for a query rewrite.
func OptimizeQueryKey(query string) string {
	return OptimizeQueryKeyPrefix + hashNormalized(query)
}

// GenerateKey returns the stable cache key for an LLM generation. The full
// prompt is hashed verbatim: the assembled context is part of the identity,
// so no normalization is applied.
func GenerateKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return GenerateKeyPrefix + hex.EncodeToString(sum[:])[:32]
}

// DocumentsKey returns the cache key for a document listing page.
func DocumentsKey(suffix string) string {
	return DocumentsKeyPrefix + suffix
}
