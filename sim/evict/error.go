package evict

import "fmt"

type constError string

// ErrInvalidCapacity may be returned from [New] and the variant constructors.
const ErrInvalidCapacity = constError("invalid capacity")

func (errStr constError) Error() string { return string(errStr) }

func zeroCapacityError(kind Kind) error {
	return fmt.Errorf("%w: %s requires a capacity of at least 1 byte", ErrInvalidCapacity, kind)
}
