package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"4096", 4096},
		{"0", 0},
		{"512B", 512},
		{"100KB", 100 << 10},
		{"100kb", 100 << 10},
		{"2MB", 2 << 20},
		{"2 MiB", 2 << 20},
		{"3GB", 3 << 30},
		{"1GiB", 1 << 30},
		{"1TB", 1 << 40},
		{"8g", 8 << 30},
		{"  64K ", 64 << 10},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "GB", "-1MB", "1.5GB", "ten", "10XB", "99999999999999999999", "20000000TB"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			assert.Error(t, err)
		})
	}
}
