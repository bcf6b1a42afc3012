package kvcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexedSet_AddAndContains(t *testing.T) {
	set := NewIndexedSet("ethereum")
	assert.False(t, set.Contains(5))

	set.Add(5)
	assert.True(t, set.Contains(5))
	assert.Equal(t, 1, set.Len())
}

func TestIndexedSet_HeightsSortedAscending(t *testing.T) {
	set := NewIndexedSet("ethereum")
	set.Add(300)
	set.Add(1)
	set.Add(42)

	assert.Equal(t, []int64{1, 42, 300}, set.Heights())
}

func TestFromHeights_BuildsContainsSet(t *testing.T) {
	set := FromHeights("polygon", []int64{0, 1, 2})

	assert.True(t, set.Contains(0))
	assert.True(t, set.Contains(1))
	assert.True(t, set.Contains(2))
	assert.False(t, set.Contains(3))
}

func TestShardOf_PartitionsAtTenMillion(t *testing.T) {
	assert.Equal(t, int64(0), shardOf(0))
	assert.Equal(t, int64(0), shardOf(ShardSize-1))
	assert.Equal(t, int64(1), shardOf(ShardSize))
	assert.Equal(t, int64(2), shardOf(2*ShardSize+5))
}

func TestShardKey_Format(t *testing.T) {
	assert.Equal(t, "ethereum-0", shardKey("ethereum", 0))
	assert.Equal(t, "ethereum-1", shardKey("ethereum", 1))
}
