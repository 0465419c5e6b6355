package payments

import (
	"bytes"
	"cmp"
	"fmt"
	"math/bits"
	"slices"
)

// SelectUTXOs picks inputs covering target, largest value first, using at
// most maxInputs records. Ties are broken by key image so the choice is
// deterministic. The caller passes only eligible records.
func SelectUTXOs(utxos []UnspentOutput, target uint64, maxInputs int) ([]UnspentOutput, error) {
	if maxInputs <= 0 {
		return nil, fmt.Errorf("%w: max inputs %d", ErrNoInputs, maxInputs)
	}
	sorted := slices.Clone(utxos)
	slices.SortStableFunc(sorted, func(a, b UnspentOutput) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return bytes.Compare(a.KeyImage[:], b.KeyImage[:])
	})

	var total uint64
	for i := range sorted {
		if i == maxInputs {
			return nil, fmt.Errorf("%w: %d largest inputs hold %d, need %d",
				ErrInsufficientFunds, maxInputs, total, target)
		}
		var carry uint64
		total, carry = bits.Add64(total, sorted[i].Value, 0)
		if carry != 0 || total >= target {
			return sorted[:i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, target)
}
