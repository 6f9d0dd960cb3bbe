package sim

import "github.com/cachesim/cachemrc/sim/evict"

// Key identifies a cached object.
type Key = evict.Key

// AccessRecord is one normalized trace access.
// Command and TTL are carried for future policies and not interpreted.
type AccessRecord struct {
	Timestamp uint64
	Command   uint8
	Key       Key
	Size      uint32 // object size in bytes; 0 is treated as 1
	TTL       uint32
}

// NormalizedSize returns the size used for eviction accounting.
// A zero-byte object still occupies one unit.
func (a *AccessRecord) NormalizedSize() uint64 {
	if a.Size == 0 {
		return 1
	}
	return uint64(a.Size)
}
