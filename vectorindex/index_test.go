package vectorindex

import (
	"sync"
	"testing"

	"github.com/poiesic/keepsake/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	got := cosine(v, v, norm(v), norm(v))
	assert.InDelta(t, 1.0, got, 1e-6)
}

func TestCosine_ZeroVector(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	zero := []float32{0, 0, 0}
	assert.Equal(t, float32(0), cosine(v, zero, norm(v), norm(zero)))
	assert.Equal(t, float32(0), cosine(zero, zero, 0, 0))
}

func TestMemory_UpsertAndSearch(t *testing.T) {
	idx := NewMemory()

	vec := []float32{0.1, 0.2, 0.3}
	require.NoError(t, idx.Upsert(Record{Id: 1, ItemId: 10, Vector: vec}))
	require.Equal(t, 1, idx.Count())

	matches, err := idx.Search(vec, 5, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(10), matches[0].ItemId)
	assert.InDelta(t, 1.0, float64(matches[0].Score), 1e-6)
}

func TestMemory_UpsertReplaces(t *testing.T) {
	idx := NewMemory()

	require.NoError(t, idx.Upsert(Record{Id: 1, ItemId: 10, Vector: []float32{1, 0}}))
	require.NoError(t, idx.Upsert(Record{Id: 1, ItemId: 10, Vector: []float32{0, 1}}))
	assert.Equal(t, 1, idx.Count())

	matches, err := idx.Search([]float32{0, 1}, 5, 0.9)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	idx := NewMemory()
	require.NoError(t, idx.Upsert(Record{Id: 1, ItemId: 10, Vector: []float32{1, 0, 0}}))

	t.Run("on upsert", func(t *testing.T) {
		err := idx.Upsert(Record{Id: 2, ItemId: 11, Vector: []float32{1, 0}})
		require.Error(t, err)
		assert.True(t, IsDimensionMismatch(err))

		var dim *DimensionMismatchError
		require.ErrorAs(t, err, &dim)
		assert.Equal(t, 3, dim.Want)
		assert.Equal(t, 2, dim.Got)
	})

	t.Run("on search", func(t *testing.T) {
		_, err := idx.Search([]float32{1, 0}, 5, 0)
		require.Error(t, err)
		assert.True(t, IsDimensionMismatch(err))
	})
}

func TestMemory_EmptyVectorRejected(t *testing.T) {
	idx := NewMemory()
	assert.ErrorIs(t, idx.Upsert(Record{Id: 1, ItemId: 10}), ErrEmptyVector)
}

func TestMemory_SearchOrdering(t *testing.T) {
	idx := NewMemory()

	require.NoError(t, idx.Upsert(Record{Id: 1, ItemId: 10, Vector: []float32{1, 0}}))
	require.NoError(t, idx.Upsert(Record{Id: 2, ItemId: 11, Vector: []float32{0.9, 0.1}}))
	require.NoError(t, idx.Upsert(Record{Id: 3, ItemId: 12, Vector: []float32{0, 1}}))

	matches, err := idx.Search([]float32{1, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, core.ID(10), matches[0].ItemId)
	assert.Equal(t, core.ID(11), matches[1].ItemId)
	assert.True(t, matches[0].Score >= matches[1].Score)
}

func TestMemory_MinScoreFilter(t *testing.T) {
	idx := NewMemory()

	require.NoError(t, idx.Upsert(Record{Id: 1, ItemId: 10, Vector: []float32{1, 0}}))
	require.NoError(t, idx.Upsert(Record{Id: 2, ItemId: 11, Vector: []float32{0, 1}}))

	matches, err := idx.Search([]float32{1, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(10), matches[0].ItemId)
}

func TestMemory_TieBreakInsertionOrder(t *testing.T) {
	idx := NewMemory()

	// Identical vectors: exact score tie resolved by insertion order.
	require.NoError(t, idx.Upsert(Record{Id: 5, ItemId: 50, Vector: []float32{1, 1}}))
	require.NoError(t, idx.Upsert(Record{Id: 2, ItemId: 20, Vector: []float32{1, 1}}))
	require.NoError(t, idx.Upsert(Record{Id: 9, ItemId: 90, Vector: []float32{1, 1}}))

	matches, err := idx.Search([]float32{1, 1}, 0, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, core.ID(50), matches[0].ItemId)
	assert.Equal(t, core.ID(20), matches[1].ItemId)
	assert.Equal(t, core.ID(90), matches[2].ItemId)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	idx := NewMemory()
	require.NoError(t, idx.Upsert(Record{Id: 0, ItemId: 0, Vector: []float32{1, 0, 0}}))

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = idx.Upsert(Record{
				Id:     core.ID(i),
				ItemId: core.ID(i),
				Vector: []float32{float32(i), 1, 0},
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = idx.Search([]float32{1, 0, 0}, 10, 0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, idx.Count())
}
