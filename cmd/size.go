package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// sizeUnits lists suffixes longest first so "KiB" wins over "B".
var sizeUnits = []struct {
	suffix string
	factor uint64
}{
	{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30}, {"TIB", 1 << 40},
	{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30}, {"TB", 1 << 40},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30}, {"T", 1 << 40},
	{"B", 1},
}

// ParseSize parses a byte count such as "4096", "100KB", "2 GiB" or "1tb".
// Units are 1024-based and case-insensitive; the number must be a
// non-negative integer and the result must fit in a uint64.
func ParseSize(s string) (uint64, error) {
	str := strings.ToUpper(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty size")
	}
	factor := uint64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
			factor = u.factor
			break
		}
	}
	n, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: want a non-negative integer with an optional unit (B, KB, MB, GB, TB)", s)
	}
	if n > math.MaxUint64/factor {
		return 0, fmt.Errorf("size %q overflows 64 bits", s)
	}
	return n * factor, nil
}
