package evict

// entry is one resident object in an arrival-ordered queue.
type entry struct {
	key     Key
	size    uint64
	visited bool   // reference bit (CLOCK) or visited bit (SIEVE); unused by FIFO
	prev    *entry // towards the oldest arrival
	next    *entry // towards the newest arrival
}

// queue is an intrusive doubly linked list ordered by arrival.
// head is the oldest object, tail the newest.
type queue struct {
	head *entry
	tail *entry
}

// pushBack inserts an entry at the tail (newest position).
func (q *queue) pushBack(e *entry) {
	e.next = nil
	// either both head and tail are nil, or neither is
	if q.tail != nil {
		// non-empty list; append at end
		q.tail.next = e
		e.prev = q.tail
		q.tail = e
	} else {
		// empty list; single element
		q.head = e
		q.tail = e
		e.prev = nil
	}
}

// remove detaches e from the queue.
func (q *queue) remove(e *entry) {
	if e.prev != nil {
		// a - b - e - c => a - b - c
		e.prev.next = e.next
	} else {
		// e - c - d => c - d
		q.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		// a - b - e => a - b
		q.tail = e.prev
	}
	e.next = nil
	e.prev = nil
}

// popFront detaches and returns the oldest entry, or nil if empty.
func (q *queue) popFront() *entry {
	e := q.head
	if e == nil {
		return nil
	}
	q.remove(e)
	return e
}

// moveToBack re-queues e as the newest entry.
func (q *queue) moveToBack(e *entry) {
	q.remove(e)
	q.pushBack(e)
}

// store is the key index and size accounting shared by queue-based policies.
type store struct {
	capacity uint64
	used     uint64
	rejected uint64
	index    map[Key]*entry
	order    queue
}

func newStore(capacity uint64) store {
	return store{capacity: capacity, index: make(map[Key]*entry)}
}

func (s *store) Capacity() uint64 { return s.capacity }
func (s *store) Used() uint64     { return s.used }
func (s *store) Len() int         { return len(s.index) }
func (s *store) Rejected() uint64 { return s.rejected }

// fits reports whether size more bytes can be admitted without eviction.
func (s *store) fits(size uint64) bool {
	return s.used+size <= s.capacity
}

// admit appends a new entry at the tail and accounts for its size.
// Callers must have made room first.
func (s *store) admit(key Key, size uint64) *entry {
	e := &entry{key: key, size: size}
	s.index[key] = e
	s.order.pushBack(e)
	s.used += size
	return e
}

// drop removes e from both the index and the queue.
func (s *store) drop(e *entry) {
	s.order.remove(e)
	delete(s.index, e.key)
	s.used -= e.size
}

// prepare handles the parts of Put that are common to every queue policy:
// it drops a previous entry for key and refuses objects that can never fit.
// It returns false if the object must not be admitted.
func (s *store) prepare(key Key, size uint64) bool {
	if old, ok := s.index[key]; ok {
		s.drop(old)
	}
	if size > s.capacity {
		s.rejected++
		return false
	}
	return true
}
