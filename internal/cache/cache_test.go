package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// A nil Redis client models a disabled or unreachable backend: every read
// is a miss and every write a no-op, never an error.

func newDisabled(t *testing.T) *Cache {
	t.Helper()
	return New(nil, zap.NewNop())
}

func TestDisabledGetIsMiss(t *testing.T) {
	c := newDisabled(t)
	var out string
	assert.False(t, c.GetJSON(context.Background(), "any_key", &out))
	assert.Empty(t, out)
}

func TestDisabledSetReturnsFalse(t *testing.T) {
	c := newDisabled(t)
	assert.False(t, c.SetJSON(context.Background(), "key", map[string]int{"a": 1}, time.Minute))
}

func TestDisabledDeleteReturnsFalse(t *testing.T) {
	c := newDisabled(t)
	assert.False(t, c.Delete(context.Background(), "key"))
}

func TestDisabledInvalidateIsNoop(t *testing.T) {
	c := newDisabled(t)
	assert.NotPanics(t, func() {
		c.InvalidateDocuments(context.Background())
		c.InvalidatePrefixes(context.Background(), ConversationKeyPrefix)
	})
}

func TestDisabledClose(t *testing.T) {
	c := newDisabled(t)
	require.NoError(t, c.Close())
}
