package evict

// FIFOCache evicts objects in arrival order. Reads never reorder the queue.
type FIFOCache struct {
	store
}

// NewFIFO creates an empty FIFO instance with the given byte capacity.
func NewFIFO(capacity uint64) (*FIFOCache, error) {
	if capacity == 0 {
		return nil, zeroCapacityError(FIFO)
	}
	return &FIFOCache{store: newStore(capacity)}, nil
}

func (c *FIFOCache) Get(key Key) bool {
	_, ok := c.index[key]
	return ok
}

func (c *FIFOCache) Put(key Key, size uint64) {
	if !c.prepare(key, size) {
		return
	}
	for !c.fits(size) {
		oldest := c.order.head
		if oldest == nil {
			break
		}
		c.drop(oldest)
	}
	c.admit(key, size)
}
