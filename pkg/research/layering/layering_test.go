package layering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id   string
	deps map[string]struct{}
}

func itemID(i item) string                    { return i.id }
func itemDeps(i item) map[string]struct{}      { return i.deps }

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestLayer_IndependentItemsFormOneBatch(t *testing.T) {
	items := []item{{id: "a"}, {id: "b"}, {id: "c"}}
	batches := Layer(items, itemID, itemDeps)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestLayer_LinearChainProducesOneItemPerBatch(t *testing.T) {
	items := []item{
		{id: "a"},
		{id: "b", deps: set("a")},
		{id: "c", deps: set("b")},
	}
	batches := Layer(items, itemID, itemDeps)
	require.Len(t, batches, 3)
	assert.Equal(t, "a", batches[0][0].id)
	assert.Equal(t, "b", batches[1][0].id)
	assert.Equal(t, "c", batches[2][0].id)
}

func TestLayer_EveryDependencyInEarlierBatch(t *testing.T) {
	items := []item{
		{id: "a"},
		{id: "b"},
		{id: "c", deps: set("a", "b")},
		{id: "d", deps: set("c")},
	}
	batches := Layer(items, itemID, itemDeps)

	batchOf := map[string]int{}
	for k, batch := range batches {
		for _, it := range batch {
			batchOf[it.id] = k
		}
	}
	for _, it := range items {
		for dep := range it.deps {
			assert.Less(t, batchOf[dep], batchOf[it.id])
		}
	}
}

func TestLayer_CycleRecoversAsSingleFinalBatch(t *testing.T) {
	items := []item{
		{id: "a", deps: set("b")},
		{id: "b", deps: set("a")},
	}
	batches := Layer(items, itemID, itemDeps)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}

func TestLayer_DependencyOutsideSetRecoversAsSingleBatch(t *testing.T) {
	items := []item{
		{id: "a", deps: set("ghost")},
		{id: "b"},
	}
	batches := Layer(items, itemID, itemDeps)
	require.Len(t, batches, 2)
	assert.Equal(t, "b", batches[0][0].id)
	assert.Equal(t, "a", batches[1][0].id)
}

func TestLayer_EmptyInputProducesNoBatches(t *testing.T) {
	batches := Layer([]item{}, itemID, itemDeps)
	assert.Empty(t, batches)
}
