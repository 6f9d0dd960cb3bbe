package evict

import (
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// LRUCache evicts the least recently used object first. Get promotes.
//
// The recency list is a simplelru.LRU keyed by object with its size as value.
// Its count bound is the byte capacity; eviction by bytes is done here, and
// every removal from the list, including one forced by the count bound,
// releases the object's bytes through the eviction callback.
type LRUCache struct {
	list     *simplelru.LRU[Key, uint64]
	capacity uint64
	used     uint64
	rejected uint64
}

// NewLRU creates an empty LRU instance with the given byte capacity.
func NewLRU(capacity uint64) (*LRUCache, error) {
	if capacity == 0 {
		return nil, zeroCapacityError(LRU)
	}
	bound := capacity
	if bound > math.MaxInt {
		bound = math.MaxInt
	}
	c := &LRUCache{capacity: capacity}
	list, err := simplelru.NewLRU[Key, uint64](int(bound), func(_ Key, size uint64) {
		c.used -= size
	})
	if err != nil {
		return nil, err
	}
	c.list = list
	return c, nil
}

func (c *LRUCache) Get(key Key) bool {
	_, ok := c.list.Get(key)
	return ok
}

func (c *LRUCache) Put(key Key, size uint64) {
	c.list.Remove(key)
	if size > c.capacity {
		c.rejected++
		return
	}
	for c.used+size > c.capacity {
		if _, _, ok := c.list.RemoveOldest(); !ok {
			break
		}
	}
	c.used += size
	c.list.Add(key, size)
}

func (c *LRUCache) Capacity() uint64 { return c.capacity }
func (c *LRUCache) Used() uint64     { return c.used }
func (c *LRUCache) Len() int         { return c.list.Len() }
func (c *LRUCache) Rejected() uint64 { return c.rejected }
