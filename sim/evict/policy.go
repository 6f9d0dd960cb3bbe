// Package evict implements byte-capacity-bounded cache instances used by the
// miss ratio curve simulator.
//
// Every variant tracks only keys and sizes: values are never stored, since the
// simulator only needs hit/miss signals. Instances are single-threaded and
// deterministic; eviction order depends solely on the order of Get/Put calls.
package evict

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a cached object.
type Key = uint64

// Policy is a cache instance bound to a fixed byte capacity.
// LRU, FIFO, CLOCK and SIEVE implement this.
type Policy interface {
	// Get reports whether key is resident. It may update recency or reference
	// metadata but never changes size accounting.
	Get(key Key) bool
	// Put inserts or replaces key, evicting in policy order until the object
	// fits. Objects larger than the whole capacity are refused (see Rejected).
	Put(key Key, size uint64)
	Capacity() uint64
	Used() uint64 // sum of resident object sizes; never exceeds Capacity()
	Len() int
	Rejected() uint64 // number of Put calls refused because size > Capacity()
}

// Kind names an eviction policy variant.
type Kind string

const (
	// LRU evicts the least recently used object first.
	LRU Kind = "LRU"
	// FIFO evicts the oldest inserted object first, ignoring reads.
	FIFO Kind = "FIFO"
	// CLOCK is FIFO with a reference bit: referenced objects get a second chance.
	CLOCK Kind = "CLOCK"
	// SIEVE keeps a visited bit and a hand that sweeps from oldest to newest.
	SIEVE Kind = "SIEVE"
)

// constructors maps each supported Kind to its constructor.
// Shared by ValidKinds(), IsValidKind() and New() to avoid duplication.
var constructors = map[Kind]func(capacity uint64) (Policy, error){
	LRU:   asPolicy(NewLRU),
	FIFO:  asPolicy(NewFIFO),
	CLOCK: asPolicy(NewClock),
	SIEVE: asPolicy(NewSieve),
}

// asPolicy adapts a concrete constructor so a failed construction yields a
// nil Policy rather than an interface holding a nil pointer.
func asPolicy[P Policy](ctor func(capacity uint64) (P, error)) func(capacity uint64) (Policy, error) {
	return func(capacity uint64) (Policy, error) {
		p, err := ctor(capacity)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// IsValidKind returns true if kind is a registered eviction policy.
func IsValidKind(kind Kind) bool {
	_, ok := constructors[kind]
	return ok
}

// ValidKinds returns the registered policy names in sorted order.
func ValidKinds() []Kind {
	kinds := make([]Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind resolves a case-insensitive policy name.
func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(name)))
	if !IsValidKind(kind) {
		return "", fmt.Errorf("unknown eviction policy %q; valid: %v", name, ValidKinds())
	}
	return kind, nil
}

// New creates an empty cache instance of the given kind and byte capacity.
func New(kind Kind, capacity uint64) (Policy, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown eviction policy %q; valid: %v", kind, ValidKinds())
	}
	return ctor(capacity)
}
