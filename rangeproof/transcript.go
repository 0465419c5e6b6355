package rangeproof

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/sha3"
)

// DomainSeparatorLabel seeds every range proof transcript. A proof made under
// one label never verifies under another.
const DomainSeparatorLabel = "range_proof"

// transcriptCustomization is the cSHAKE256 customization string for transcripts.
const transcriptCustomization = "mobilecoin bulletproofs transcript"

// transcript is a Fiat-Shamir transcript over cSHAKE256. Messages are
// absorbed with length-prefixed labels; challenges are squeezed from a clone
// of the running state and then fed back so later challenges depend on them.
type transcript struct {
	state sha3.ShakeHash
}

func newTranscript(label string) *transcript {
	t := &transcript{state: sha3.NewCShake256(nil, []byte(transcriptCustomization))}
	t.appendMessage("dom-sep", []byte(label))
	return t
}

func (t *transcript) appendMessage(label string, msg []byte) {
	writeFramed(t.state, []byte(label))
	writeFramed(t.state, msg)
}

func (t *transcript) appendUint64(label string, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	t.appendMessage(label, buf[:])
}

func (t *transcript) appendScalar(label string, s *Scalar) {
	t.appendMessage(label, s.Encode(nil))
}

func (t *transcript) appendCommitment(label string, c Commitment) {
	t.appendMessage(label, c[:])
}

// validateAndAppendPoint refuses the identity encoding before absorbing it.
func (t *transcript) validateAndAppendPoint(label string, c Commitment) error {
	if c == (Commitment{}) {
		return fmt.Errorf("%w: %s is the identity", ErrVerification, label)
	}
	t.appendCommitment(label, c)
	return nil
}

func (t *transcript) rangeProofDomainSep(n, m int) {
	t.appendMessage("dom-sep", []byte("rangeproof v1"))
	t.appendUint64("n", uint64(n))
	t.appendUint64("m", uint64(m))
}

func (t *transcript) innerProductDomainSep(n int) {
	t.appendMessage("dom-sep", []byte("ipp v1"))
	t.appendUint64("n", uint64(n))
}

func (t *transcript) challengeScalar(label string) *Scalar {
	t.appendMessage(label, nil)
	var wide [64]byte
	reader := t.state.Clone()
	_, _ = reader.Read(wide[:])
	t.appendMessage("challenge", wide[:])
	return ristretto255.NewScalar().FromUniformBytes(wide[:])
}

// proverRNG derives prover nonces from the current transcript state, the
// secret witness and fresh caller randomness. Nonces stay distinct across
// statements even when the caller's generator is weak.
type proverRNG struct {
	stream sha3.ShakeHash
}

func (t *transcript) buildRNG(witness [][]byte, rng io.Reader) (*proverRNG, error) {
	stream := t.state.Clone()
	writeFramed(stream, []byte("witness"))
	for _, w := range witness {
		writeFramed(stream, w)
	}
	var seed [32]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return nil, fmt.Errorf("rangeproof: read randomness: %w", err)
	}
	writeFramed(stream, []byte("rng"))
	writeFramed(stream, seed[:])
	return &proverRNG{stream: stream}, nil
}

func (r *proverRNG) scalar() *Scalar {
	var wide [64]byte
	_, _ = r.stream.Read(wide[:])
	return ristretto255.NewScalar().FromUniformBytes(wide[:])
}

func (r *proverRNG) scalars(n int) []*Scalar {
	out := make([]*Scalar, n)
	for i := range out {
		out[i] = r.scalar()
	}
	return out
}

func writeFramed(w io.Writer, b []byte) {
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(b)))
	_, _ = w.Write(size[:])
	_, _ = w.Write(b)
}
