package payments

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"math/rand/v2"
	"slices"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/rangeproof"
	"github.com/kylefleming/mobilecoin/transaction"
)

// TxBuilder shapes and signs a transaction from prepared inputs, outputs and
// their range proof. *transaction.Builder satisfies it.
type TxBuilder interface {
	Build(req transaction.BuildRequest, rng io.Reader) (*transaction.Tx, error)
}

// MixinSource supplies decoy ring members for a real input.
type MixinSource interface {
	Mixins(spent transaction.TxOut, count int) ([]transaction.TxOut, error)
}

// AssembleRequest describes one payment.
type AssembleRequest struct {
	Account        *account.AccountKey
	UTXOs          []UnspentOutput
	Outlays        []Outlay
	Fee            uint64
	TombstoneBlock uint64

	// ChangeAddress receives any remainder. Defaults to the account's change subaddress.
	ChangeAddress *account.PublicAddress
}

// Assembler turns selected inputs and outlays into a validated TxProposal.
type Assembler struct {
	builder  TxBuilder
	mixins   MixinSource
	ringSize int
	logger   *slog.Logger
}

// NewAssembler returns an Assembler that delegates transaction shaping to builder.
// A nil logger means slog.Default().
func NewAssembler(builder TxBuilder, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{builder: builder, ringSize: 1, logger: logger}
}

// SetMixins sets the decoy source and the total ring size per input.
func (a *Assembler) SetMixins(src MixinSource, ringSize int) {
	a.mixins = src
	a.ringSize = ringSize
}

type pendingOutput struct {
	prepared transaction.PreparedOutput
	outlay   int // -1 for change
}

// Assemble builds a proposal paying req.Outlays from req.UTXOs.
//
// One output is created per outlay, plus a change output when the inputs
// exceed outlays and fee. Output order is shuffled with rng, a single range
// proof covers every output, and the returned proposal has passed Validate.
func (a *Assembler) Assemble(req AssembleRequest, rng io.Reader) (*TxProposal, error) {
	if a.builder == nil {
		return nil, fmt.Errorf("%w: tx builder", ErrNilParam)
	}
	if req.Account == nil {
		return nil, fmt.Errorf("%w: account key", ErrNilParam)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: rng", ErrNilParam)
	}
	if len(req.UTXOs) == 0 {
		return nil, ErrNoInputs
	}
	if len(req.Outlays) == 0 {
		return nil, ErrNoOutlays
	}

	totalIn, err := sumValues(len(req.UTXOs), func(i int) uint64 { return req.UTXOs[i].Value })
	if err != nil {
		return nil, err
	}
	totalOut, err := sumValues(len(req.Outlays), func(i int) uint64 { return req.Outlays[i].Value })
	if err != nil {
		return nil, err
	}
	needed, carry := bits.Add64(totalOut, req.Fee, 0)
	if carry != 0 {
		return nil, fmt.Errorf("%w: outlays plus fee overflow", ErrInsufficientFunds)
	}
	if totalIn < needed {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, needed, totalIn)
	}
	change := totalIn - needed

	numOutputs := len(req.Outlays)
	if change > 0 {
		numOutputs++
	}
	if numOutputs > rangeproof.MaxAggregationWidth {
		return nil, fmt.Errorf("%w: %d outputs, at most %d", ErrTooManyOutputs, numOutputs, rangeproof.MaxAggregationWidth)
	}

	// Outputs.
	pending := make([]pendingOutput, 0, numOutputs)
	for i, o := range req.Outlays {
		out, blinding, err := transaction.NewOutput(o.Value, o.Receiver, nil, rng)
		if err != nil {
			return nil, fmt.Errorf("payments: outlay[%d] output: %w", i, err)
		}
		pending = append(pending, pendingOutput{
			prepared: transaction.PreparedOutput{TxOut: *out, Value: o.Value, Blinding: blinding},
			outlay:   i,
		})
	}
	if change > 0 {
		changeAddr := req.Account.ChangeSubaddress()
		if req.ChangeAddress != nil {
			changeAddr = *req.ChangeAddress
		}
		out, blinding, err := transaction.NewOutput(change, changeAddr, nil, rng)
		if err != nil {
			return nil, fmt.Errorf("payments: change output: %w", err)
		}
		pending = append(pending, pendingOutput{
			prepared: transaction.PreparedOutput{TxOut: *out, Value: change, Blinding: blinding},
			outlay:   -1,
		})
	}

	shuffler, err := newShuffler(rng)
	if err != nil {
		return nil, err
	}
	shuffler.Shuffle(len(pending), func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })

	// Range proof over every output.
	values := make([]uint64, len(pending))
	blindings := make([]*rangeproof.Scalar, len(pending))
	outputs := make([]transaction.PreparedOutput, len(pending))
	for i, p := range pending {
		values[i] = p.prepared.Value
		blindings[i] = p.prepared.Blinding
		outputs[i] = p.prepared
	}
	proof, commitments, err := rangeproof.Generate(values, blindings, rng)
	if err != nil {
		a.logger.Error("range proof generation failed",
			slog.Int("outputs", len(values)),
			slog.String("error", err.Error()))
		return nil, err
	}

	// Inputs.
	inputs := make([]transaction.InputCredentials, len(req.UTXOs))
	for i := range req.UTXOs {
		cred, err := a.inputCredentials(req.Account, &req.UTXOs[i])
		if err != nil {
			return nil, fmt.Errorf("payments: input[%d]: %w", i, err)
		}
		inputs[i] = cred
	}

	tx, err := a.builder.Build(transaction.BuildRequest{
		Inputs:         inputs,
		Outputs:        outputs,
		Proof:          proof,
		Commitments:    commitments,
		Fee:            req.Fee,
		TombstoneBlock: req.TombstoneBlock,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("payments: build tx: %w", err)
	}

	mapping, err := outlayMapping(pending, tx)
	if err != nil {
		return nil, err
	}

	proposal := &TxProposal{
		UTXOs:                   slices.Clone(req.UTXOs),
		Outlays:                 slices.Clone(req.Outlays),
		Tx:                      tx,
		Fee:                     req.Fee,
		OutlayIndexToTxOutIndex: mapping,
	}
	if err := Validate(proposal); err != nil {
		return nil, err
	}

	a.logger.Debug("assembled tx proposal",
		slog.Int("inputs", len(inputs)),
		slog.Int("outputs", len(outputs)),
		slog.Uint64("fee", req.Fee),
		slog.Uint64("tombstone", req.TombstoneBlock))
	return proposal, nil
}

// inputCredentials opens an owned output and places it in a ring.
func (a *Assembler) inputCredentials(key *account.AccountKey, utxo *UnspentOutput) (transaction.InputCredentials, error) {
	value, blinding, onetime, err := transaction.ViewOutput(key, uint64(utxo.SubaddressIndex), &utxo.TxOut)
	if err != nil {
		return transaction.InputCredentials{}, err
	}
	if value != utxo.Value {
		return transaction.InputCredentials{}, fmt.Errorf("%w: recorded value %d, output holds %d",
			transaction.ErrInvalidInput, utxo.Value, value)
	}

	ring := []transaction.TxOut{utxo.TxOut}
	if a.mixins != nil && a.ringSize > 1 {
		decoys, err := a.mixins.Mixins(utxo.TxOut, a.ringSize-1)
		if err != nil {
			return transaction.InputCredentials{}, fmt.Errorf("payments: mixins: %w", err)
		}
		ring = append(ring, decoys...)
		// Ring members are ordered by target key so the real input's position carries no information.
		slices.SortFunc(ring, func(x, y transaction.TxOut) int {
			return bytes.Compare(x.TargetKey[:], y.TargetKey[:])
		})
	}
	realIndex := slices.IndexFunc(ring, func(o transaction.TxOut) bool { return o.Equal(&utxo.TxOut) })

	return transaction.InputCredentials{
		Ring:           ring,
		RealIndex:      realIndex,
		OnetimePrivate: onetime,
		Value:          value,
		Blinding:       blinding,
	}, nil
}

// outlayMapping finds, for each outlay, the output slot carrying its commitment.
func outlayMapping(pending []pendingOutput, tx *transaction.Tx) (map[int]int, error) {
	slots := make(map[rangeproof.Commitment]int, len(tx.Prefix.Outputs))
	for i := range tx.Prefix.Outputs {
		slots[tx.Prefix.Outputs[i].Amount.Commitment] = i
	}
	mapping := make(map[int]int)
	for _, p := range pending {
		if p.outlay < 0 {
			continue
		}
		slot, ok := slots[p.prepared.TxOut.Amount.Commitment]
		if !ok {
			return nil, fmt.Errorf("%w: outlay %d has no output in the built tx", ErrIndexOutOfBounds, p.outlay)
		}
		mapping[p.outlay] = slot
	}
	return mapping, nil
}

func sumValues(n int, value func(int) uint64) (uint64, error) {
	var total uint64
	for i := 0; i < n; i++ {
		var carry uint64
		total, carry = bits.Add64(total, value(i), 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: value total overflows", ErrInsufficientFunds)
		}
	}
	return total, nil
}

// newShuffler seeds a ChaCha8 generator from 32 bytes of rng.
func newShuffler(rng io.Reader) (*rand.Rand, error) {
	var seed [32]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return nil, fmt.Errorf("payments: shuffle seed: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}
