package rangeproof

import (
	"fmt"
	"math"
)

// PadToPowerOfTwo returns a copy of seq extended to the next power of two by
// repeating its last element. The original elements keep their positions and
// a sequence whose length is already a power of two comes back unchanged.
//
// The filler is a literal copy of the last element, never zero or random data,
// so padded entries look exactly like genuine duplicates of the final entry.
func PadToPowerOfTwo[T any](seq []T) ([]T, error) {
	if len(seq) == 0 {
		return nil, ErrEmptyBatch
	}
	size, err := nextPowerOfTwo(len(seq))
	if err != nil {
		return nil, err
	}

	padded := make([]T, size)
	copy(padded, seq)
	last := seq[len(seq)-1]
	for i := len(seq); i < size; i++ {
		padded[i] = last
	}
	return padded, nil
}

// nextPowerOfTwo returns the smallest power of two >= n.
func nextPowerOfTwo(n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmptyBatch
	}
	p := 1
	for p < n {
		if p > math.MaxInt/2 {
			return 0, fmt.Errorf("%w: length %d", ErrPaddingOverflow, n)
		}
		p <<= 1
	}
	return p, nil
}
