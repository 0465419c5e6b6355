package transaction

import (
	"fmt"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/rangeproof"
	"github.com/kylefleming/mobilecoin/wire"
)

// Field numbers follow the external schema:
//
//	Tx        {1 prefix, 2 signature}
//	TxPrefix  {1 inputs, 2 outputs, 3 fee, 4 tombstone_block}
//	TxIn      {1 ring}
//	TxOut     {1 amount, 2 target_key, 3 public_key, 4 e_account_hint}
//	Amount    {1 commitment, 2 masked_value (fixed64)}
//	Signature {1 ring_signatures, 2 pseudo_output_commitments, 3 range_proofs}

// Encode serialises the amount.
func (a Amount) Encode() []byte {
	var b []byte
	b = wire.AppendCompressed(b, 1, a.Commitment[:])
	b = wire.AppendFixed64(b, 2, a.MaskedValue)
	return b
}

// DecodeAmount parses an Amount. The commitment is required.
func DecodeAmount(b []byte) (Amount, error) {
	var (
		a    Amount
		seen bool
	)
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			c, err := decodeCommitment(f)
			if err != nil {
				return err
			}
			a.Commitment, seen = c, true
		case 2:
			v, err := f.Fixed()
			if err != nil {
				return err
			}
			a.MaskedValue = v
		}
		return nil
	})
	if err != nil {
		return Amount{}, fmt.Errorf("%w: amount: %w", ErrInvalidEncoding, err)
	}
	if !seen {
		return Amount{}, fmt.Errorf("%w: amount: missing commitment", ErrInvalidEncoding)
	}
	return a, nil
}

// Encode serialises the output.
func (o *TxOut) Encode() []byte {
	var b []byte
	b = wire.AppendMessage(b, 1, o.Amount.Encode())
	b = wire.AppendCompressed(b, 2, o.TargetKey[:])
	b = wire.AppendCompressed(b, 3, o.PublicKey[:])
	if len(o.EAccountHint) > 0 {
		b = wire.AppendMessage(b, 4, wire.AppendBytes(nil, 1, o.EAccountHint))
	}
	return b
}

// DecodeTxOut parses a TxOut. Amount, target key and public key are required.
func DecodeTxOut(b []byte) (*TxOut, error) {
	var (
		o                         TxOut
		haveAmt, haveTgt, havePub bool
	)
	err := wire.Walk(b, func(f wire.Field) error {
		msg, err := f.Message()
		if err != nil {
			if f.Num >= 1 && f.Num <= 4 {
				return err
			}
			return nil
		}
		switch f.Num {
		case 1:
			if o.Amount, err = DecodeAmount(msg); err != nil {
				return err
			}
			haveAmt = true
		case 2:
			if o.TargetKey, err = decodeKey(msg); err != nil {
				return err
			}
			haveTgt = true
		case 3:
			if o.PublicKey, err = decodeKey(msg); err != nil {
				return err
			}
			havePub = true
		case 4:
			err = wire.Walk(msg, func(h wire.Field) error {
				if h.Num != 1 {
					return nil
				}
				data, err := h.Message()
				if err != nil {
					return err
				}
				o.EAccountHint = append([]byte(nil), data...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tx out: %w", ErrInvalidEncoding, err)
	}
	if !haveAmt || !haveTgt || !havePub {
		return nil, fmt.Errorf("%w: tx out: missing required field", ErrInvalidEncoding)
	}
	return &o, nil
}

// Encode serialises the input.
func (in *TxIn) Encode() []byte {
	var b []byte
	for i := range in.Ring {
		b = wire.AppendMessage(b, 1, in.Ring[i].Encode())
	}
	return b
}

// DecodeTxIn parses a TxIn.
func DecodeTxIn(b []byte) (*TxIn, error) {
	var in TxIn
	err := wire.Walk(b, func(f wire.Field) error {
		if f.Num != 1 {
			return nil
		}
		msg, err := f.Message()
		if err != nil {
			return err
		}
		out, err := DecodeTxOut(msg)
		if err != nil {
			return err
		}
		in.Ring = append(in.Ring, *out)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tx in: %w", ErrInvalidEncoding, err)
	}
	return &in, nil
}

// Encode serialises the prefix. The output is the message signed by every input.
func (p *TxPrefix) Encode() []byte {
	var b []byte
	for i := range p.Inputs {
		b = wire.AppendMessage(b, 1, p.Inputs[i].Encode())
	}
	for i := range p.Outputs {
		b = wire.AppendMessage(b, 2, p.Outputs[i].Encode())
	}
	b = wire.AppendUint64(b, 3, p.Fee)
	b = wire.AppendUint64(b, 4, p.TombstoneBlock)
	return b
}

// DecodeTxPrefix parses a TxPrefix.
func DecodeTxPrefix(b []byte) (*TxPrefix, error) {
	var p TxPrefix
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			in, err := DecodeTxIn(msg)
			if err != nil {
				return err
			}
			p.Inputs = append(p.Inputs, *in)
		case 2:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			out, err := DecodeTxOut(msg)
			if err != nil {
				return err
			}
			p.Outputs = append(p.Outputs, *out)
		case 3:
			v, err := f.Uint64()
			if err != nil {
				return err
			}
			p.Fee = v
		case 4:
			v, err := f.Uint64()
			if err != nil {
				return err
			}
			p.TombstoneBlock = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tx prefix: %w", ErrInvalidEncoding, err)
	}
	return &p, nil
}

// Encode serialises the signature section.
func (s *Signature) Encode() []byte {
	var b []byte
	for _, sig := range s.RingSignatures {
		b = wire.AppendMessage(b, 1, sig)
	}
	for _, c := range s.PseudoOutputCommitments {
		b = wire.AppendCompressed(b, 2, c[:])
	}
	b = wire.AppendBytes(b, 3, s.RangeProof)
	return b
}

// DecodeSignature parses a Signature.
func DecodeSignature(b []byte) (*Signature, error) {
	var s Signature
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			s.RingSignatures = append(s.RingSignatures, append([]byte{}, msg...))
		case 2:
			c, err := decodeCommitment(f)
			if err != nil {
				return err
			}
			s.PseudoOutputCommitments = append(s.PseudoOutputCommitments, c)
		case 3:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			s.RangeProof = append([]byte(nil), msg...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrInvalidEncoding, err)
	}
	return &s, nil
}

// Encode serialises the transaction.
func (t *Tx) Encode() []byte {
	var b []byte
	b = wire.AppendMessage(b, 1, t.Prefix.Encode())
	b = wire.AppendMessage(b, 2, t.Signature.Encode())
	return b
}

// DecodeTx parses a Tx. The prefix is required.
func DecodeTx(b []byte) (*Tx, error) {
	var (
		t          Tx
		havePrefix bool
	)
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			p, err := DecodeTxPrefix(msg)
			if err != nil {
				return err
			}
			t.Prefix, havePrefix = *p, true
		case 2:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			s, err := DecodeSignature(msg)
			if err != nil {
				return err
			}
			t.Signature = *s
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tx: %w", ErrInvalidEncoding, err)
	}
	if !havePrefix {
		return nil, fmt.Errorf("%w: tx: missing prefix", ErrInvalidEncoding)
	}
	return &t, nil
}

func decodeCommitment(f wire.Field) (rangeproof.Commitment, error) {
	msg, err := f.Message()
	if err != nil {
		return rangeproof.Commitment{}, err
	}
	data, err := wire.ParseCompressed(msg, rangeproof.CommitmentSize)
	if err != nil {
		return rangeproof.Commitment{}, err
	}
	return rangeproof.CommitmentFromBytes(data)
}

func decodeKey(msg []byte) (account.PublicKey, error) {
	data, err := wire.ParseCompressed(msg, account.KeySize)
	if err != nil {
		return account.PublicKey{}, err
	}
	return account.PublicKeyFromBytes(data)
}
