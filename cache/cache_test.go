package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryCache(t *testing.T, model string) *EmbeddingCache {
	t.Helper()
	c, err := Open("", model, true)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetPutRoundTrip(t *testing.T) {
	c := newMemoryCache(t, "all-minilm")

	vec, err := c.Get("some abstract text")
	require.NoError(t, err)
	assert.Nil(t, vec)

	want := []float32{0.25, -0.5, 1.0, 0}
	require.NoError(t, c.Put("some abstract text", want))

	got, err := c.Get("some abstract text")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestKeysSeparateModelAndText(t *testing.T) {
	c := newMemoryCache(t, "all-minilm")

	// A model/text split at a different boundary must not collide.
	require.NoError(t, c.Put("ab", []float32{1}))
	got, err := c.Get("b")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDifferentModelsDoNotShareEntries(t *testing.T) {
	a := newMemoryCache(t, "model-a")
	require.NoError(t, a.Put("text", []float32{1, 2}))

	b := newMemoryCache(t, "model-b")
	got, err := b.Get("text")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetBatch(t *testing.T) {
	c := newMemoryCache(t, "all-minilm")

	require.NoError(t, c.Put("first", []float32{1}))
	require.NoError(t, c.Put("third", []float32{3}))

	vectors, hits, err := c.GetBatch([]string{"first", "second", "third"})
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Nil(t, vectors[1])
	assert.Equal(t, []float32{3}, vectors[2])
}
