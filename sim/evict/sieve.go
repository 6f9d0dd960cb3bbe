package evict

// SieveCache implements SIEVE: objects are queued by arrival and never moved.
// A hit only sets the visited bit. The hand walks from the oldest object
// towards newer ones, clearing visited bits, and evicts the first unvisited
// object it meets; it then stays there for the next eviction.
type SieveCache struct {
	store
	hand *entry // next eviction candidate; nil means start from the oldest
}

// NewSieve creates an empty SIEVE instance with the given byte capacity.
func NewSieve(capacity uint64) (*SieveCache, error) {
	if capacity == 0 {
		return nil, zeroCapacityError(SIEVE)
	}
	return &SieveCache{store: newStore(capacity)}, nil
}

func (c *SieveCache) Get(key Key) bool {
	e, ok := c.index[key]
	if ok {
		e.visited = true
	}
	return ok
}

func (c *SieveCache) Put(key Key, size uint64) {
	if old, ok := c.index[key]; ok && old == c.hand {
		c.hand = old.next
	}
	if !c.prepare(key, size) {
		return
	}
	for !c.fits(size) && c.Len() > 0 {
		c.evict()
	}
	c.admit(key, size)
}

func (c *SieveCache) evict() {
	e := c.hand
	if e == nil {
		e = c.order.head
	}
	for e.visited {
		e.visited = false
		e = e.next
		if e == nil {
			e = c.order.head
		}
	}
	c.hand = e.next
	c.drop(e)
}
