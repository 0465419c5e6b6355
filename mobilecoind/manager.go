// Package mobilecoind is the transactions manager: it keeps the account's
// unspent outputs, builds payment proposals from them and submits proposals
// to a consensus node.
package mobilecoind

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/bits"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/config"
	"github.com/kylefleming/mobilecoin/payments"
	"github.com/kylefleming/mobilecoin/transaction"
	"github.com/kylefleming/mobilecoin/utxostore"
)

// UTXOStore is the slice of *utxostore.Store the manager uses.
type UTXOStore interface {
	Put(u *payments.UnspentOutput) error
	ListSpendable(index uint32, currentHeight uint64) ([]payments.UnspentOutput, error)
	MarkAttempted(keyImages []account.KeyImage, height, tombstone uint64) error
}

// Submitter hands a finished transaction to the network and reports the
// node's block count. network.ConsensusService satisfies it.
type Submitter interface {
	SubmitTx(ctx context.Context, tx *transaction.Tx) (uint64, error)
}

// Manager generates and submits transaction proposals for one account.
type Manager struct {
	cfg       config.Config
	store     UTXOStore
	key       *account.AccountKey
	assembler *payments.Assembler
	submitter Submitter
	logger    *slog.Logger
	closer    io.Closer
}

// NewManager validates cfg and wires the collaborators. A nil logger means slog.Default().
func NewManager(
	cfg config.Config,
	store UTXOStore,
	key *account.AccountKey,
	assembler *payments.Assembler,
	submitter Submitter,
	logger *slog.Logger,
) (*Manager, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	switch {
	case store == nil:
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	case key == nil:
		return nil, fmt.Errorf("%w: account key", ErrNilParam)
	case assembler == nil:
		return nil, fmt.Errorf("%w: assembler", ErrNilParam)
	case submitter == nil:
		return nil, fmt.Errorf("%w: submitter", ErrNilParam)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		key:       key,
		assembler: assembler,
		submitter: submitter,
		logger:    logger,
	}, nil
}

// Open opens the bolt store under cfg.DataDir and builds a Manager whose
// transactions are signed by signer. Close releases the store.
func Open(cfg config.Config, key *account.AccountKey, signer transaction.RingSigner, submitter Submitter, logger *slog.Logger) (*Manager, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, fmt.Errorf("%w: ring signer", ErrNilParam)
	}
	if logger == nil {
		logger = slog.Default()
	}
	store, err := utxostore.Open(cfg.UTXODBPath())
	if err != nil {
		return nil, err
	}
	assembler := payments.NewAssembler(transaction.NewBuilder(signer), logger)
	m, err := NewManager(cfg, store, key, assembler, submitter, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	m.closer = store
	return m, nil
}

// Close releases the store opened by Open. It is a no-op for managers built
// with NewManager.
func (m *Manager) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// LoadAccountKey decrypts the seed file at path and derives the account key.
func LoadAccountKey(path, password string) (*account.AccountKey, error) {
	seed, err := account.ReadSeedFile(path, password)
	if err != nil {
		return nil, err
	}
	return account.AccountKeyFromSeed(seed)
}

// ImportOutput records an output received on subaddress as spendable.
func (m *Manager) ImportOutput(out *transaction.TxOut, subaddress uint32) (*payments.UnspentOutput, error) {
	if out == nil {
		return nil, fmt.Errorf("%w: tx out", ErrNilParam)
	}
	value, _, onetime, err := transaction.ViewOutput(m.key, uint64(subaddress), out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotOwned, err)
	}
	ki, err := account.KeyImageOf(onetime)
	if err != nil {
		return nil, err
	}
	u := &payments.UnspentOutput{
		TxOut:           *out,
		SubaddressIndex: subaddress,
		KeyImage:        ki,
		Value:           value,
	}
	if err := m.store.Put(u); err != nil {
		return nil, err
	}
	m.logger.Debug("output imported",
		slog.Uint64("subaddress", uint64(subaddress)),
		slog.Uint64("value", value),
	)
	return u, nil
}

// GenerateTxProposal pays outlays from the spendable outputs of subaddress.
// Inputs are chosen by payments.SelectUTXOs up to cfg.MaxInputs, the fee is
// cfg.Fee and the transaction expires cfg.TombstoneBlocks past currentHeight.
func (m *Manager) GenerateTxProposal(subaddress uint32, outlays []payments.Outlay, currentHeight uint64, rng io.Reader) (*payments.TxProposal, error) {
	if len(outlays) == 0 {
		return nil, payments.ErrNoOutlays
	}
	target := m.cfg.Fee
	for i := range outlays {
		var carry uint64
		target, carry = bits.Add64(target, outlays[i].Value, 0)
		if carry != 0 {
			return nil, fmt.Errorf("%w: outlays plus fee", ErrAmountOverflow)
		}
	}
	tombstone, carry := bits.Add64(currentHeight, m.cfg.TombstoneBlocks, 0)
	if carry != 0 {
		return nil, fmt.Errorf("%w: tombstone block", ErrAmountOverflow)
	}

	spendable, err := m.store.ListSpendable(subaddress, currentHeight)
	if err != nil {
		return nil, err
	}
	selected, err := payments.SelectUTXOs(spendable, target, m.cfg.MaxInputs)
	if err != nil {
		return nil, err
	}

	return m.assembler.Assemble(payments.AssembleRequest{
		Account:        m.key,
		UTXOs:          selected,
		Outlays:        outlays,
		Fee:            m.cfg.Fee,
		TombstoneBlock: tombstone,
	}, rng)
}

// SubmitTxProposal decodes an encoded proposal, verifies its transaction's
// range proof and balance, submits it and leases its inputs until the
// transaction's tombstone block.
func (m *Manager) SubmitTxProposal(ctx context.Context, encoded []byte, currentHeight uint64) (*payments.TxProposal, error) {
	p, err := payments.DecodeTxProposal(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	if err := transaction.VerifyRangeProof(p.Tx, rand.Reader); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	if err := transaction.VerifyBalance(p.Tx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}

	txHash := p.Tx.Hash().String()
	blockCount, err := m.submitter.SubmitTx(ctx, p.Tx)
	if err != nil {
		m.logger.Warn("tx submission failed", slog.String("tx_hash", txHash), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	keyImages := make([]account.KeyImage, len(p.UTXOs))
	for i := range p.UTXOs {
		keyImages[i] = p.UTXOs[i].KeyImage
	}
	tombstone := p.Tx.Prefix.TombstoneBlock
	if err := m.store.MarkAttempted(keyImages, currentHeight, tombstone); err != nil {
		return nil, fmt.Errorf("mobilecoind: mark inputs attempted: %w", err)
	}

	m.logger.Info("tx proposal submitted",
		slog.String("tx_hash", txHash),
		slog.Int("inputs", len(p.UTXOs)),
		slog.Int("outlays", len(p.Outlays)),
		slog.Uint64("fee", p.Fee),
		slog.Uint64("tombstone", tombstone),
		slog.Uint64("block_count", blockCount),
	)
	return p, nil
}
