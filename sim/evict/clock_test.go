package evict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_ReferencedKey_GetsSecondChance(t *testing.T) {
	// GIVEN a full capacity-3 cache holding 1,2,3 (size 1 each)
	c, err := NewClock(3)
	require.NoError(t, err)
	c.Put(1, 1)
	c.Put(2, 1)
	c.Put(3, 1)

	// WHEN key 1 is referenced and key 4 is inserted
	require.True(t, c.Get(1))
	c.Put(4, 1)

	// THEN key 1 survives with its bit cleared and key 2 is evicted
	assert.True(t, c.resident(1))
	assert.False(t, c.resident(2))
	assert.True(t, c.resident(3))
	assert.True(t, c.resident(4))

	// AND the next eviction takes key 3 (oldest unreferenced after re-queue)
	c.Put(5, 1)
	assert.True(t, c.resident(1))
	assert.False(t, c.resident(3))
	assert.True(t, c.resident(5))
}

func TestClock_AllReferenced_EvictsOldestAfterSweep(t *testing.T) {
	c, err := NewClock(2)
	require.NoError(t, err)
	c.Put(1, 1)
	c.Put(2, 1)
	c.Get(1)
	c.Get(2)

	c.Put(3, 1)

	assert.False(t, c.Get(1))
	assert.True(t, c.Get(2))
	assert.True(t, c.Get(3))
}
