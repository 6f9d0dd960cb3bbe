package evict

// ClockCache is FIFO with one reference bit per object.
// On eviction the oldest object is inspected: if it was referenced since it
// last reached the head, its bit is cleared and it is re-queued at the tail;
// otherwise it is evicted.
type ClockCache struct {
	store
}

// NewClock creates an empty CLOCK instance with the given byte capacity.
func NewClock(capacity uint64) (*ClockCache, error) {
	if capacity == 0 {
		return nil, zeroCapacityError(CLOCK)
	}
	return &ClockCache{store: newStore(capacity)}, nil
}

func (c *ClockCache) Get(key Key) bool {
	e, ok := c.index[key]
	if ok {
		e.visited = true
	}
	return ok
}

func (c *ClockCache) Put(key Key, size uint64) {
	if !c.prepare(key, size) {
		return
	}
	for !c.fits(size) {
		victim := c.victim()
		if victim == nil {
			break
		}
		c.drop(victim)
	}
	c.admit(key, size)
}

// victim advances the clock hand until it finds an unreferenced object.
// Each pass clears at most one bit per object, so the loop terminates
// within two sweeps of the queue.
func (c *ClockCache) victim() *entry {
	for {
		e := c.order.head
		if e == nil || !e.visited {
			return e
		}
		e.visited = false
		c.order.moveToBack(e)
	}
}
