package rangeproof

import (
	crand "crypto/rand"
	"math"
	mrand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBatch(t *testing.T, seed uint64, n int) ([]uint64, []*Scalar) {
	t.Helper()
	src := mrand.New(mrand.NewPCG(seed, seed+1))
	values := make([]uint64, n)
	blindings := make([]*Scalar, n)
	for i := range values {
		values[i] = src.Uint64()
		b, err := RandomScalar(crand.Reader)
		require.NoError(t, err)
		blindings[i] = b
	}
	return values, blindings
}

func generateAndVerify(t *testing.T, values []uint64, blindings []*Scalar) ([]Commitment, *RangeProof) {
	t.Helper()
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)
	require.NoError(t, Verify(proof, commitments, crand.Reader))
	return commitments, proof
}

// ---------------------------------------------------------------------------
// Generate / Verify
// ---------------------------------------------------------------------------

func TestGenerateVerify_PowerOfTwoBatch(t *testing.T) {
	values, blindings := randomBatch(t, 1, 2)
	commitments, _ := generateAndVerify(t, values, blindings)
	assert.Len(t, commitments, 2)
}

func TestGenerateVerify_PaddedBatch(t *testing.T) {
	values, blindings := randomBatch(t, 2, 9)
	commitments, proof := generateAndVerify(t, values, blindings)

	require.Len(t, commitments, 16)
	for i := 9; i < 16; i++ {
		assert.Equal(t, commitments[8], commitments[i], "padded commitment %d must repeat the last", i)
	}
	assert.Equal(t, 10, proof.Rounds(), "log2(64*16) rounds")

	// The unpadded prefix verifies too because Verify pads the same way.
	require.NoError(t, Verify(proof, commitments[:9], crand.Reader))
}

func TestGenerateVerify_SingleValue(t *testing.T) {
	generateAndVerify(t, []uint64{0}, []*Scalar{ScalarFromUint64(7)})
	generateAndVerify(t, []uint64{math.MaxUint64}, []*Scalar{ScalarFromUint64(7)})
}

func TestGenerate_CommitmentsMatchCommit(t *testing.T) {
	values, blindings := randomBatch(t, 3, 3)
	_, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)
	for i := range values {
		assert.Equal(t, Commit(values[i], blindings[i]), commitments[i])
	}
	assert.Equal(t, Commit(values[2], blindings[2]), commitments[3])
}

func TestVerify_WrongCommitment(t *testing.T) {
	values, blindings := randomBatch(t, 4, 4)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	unrelated, err := RandomScalar(crand.Reader)
	require.NoError(t, err)
	for i := range commitments {
		tampered := append([]Commitment(nil), commitments...)
		tampered[i] = Commit(mrand.Uint64(), unrelated)
		err := Verify(proof, tampered, crand.Reader)
		assert.ErrorIs(t, err, ErrVerification, "replaced commitment %d", i)
	}
}

func TestVerify_AllCommitmentsWrong(t *testing.T) {
	values, blindings := randomBatch(t, 5, 4)
	proof, _, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	wrong := make([]Commitment, len(blindings))
	for i, b := range blindings {
		wrong[i] = Commit(77, b)
	}
	assert.ErrorIs(t, Verify(proof, wrong, crand.Reader), ErrVerification)
}

func TestVerify_WrongWidth(t *testing.T) {
	values, blindings := randomBatch(t, 6, 2)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	extended := append(append([]Commitment(nil), commitments...), commitments[0], commitments[1])
	assert.ErrorIs(t, Verify(proof, extended, crand.Reader), ErrVerification)
}

func TestVerify_OtherDomainLabel(t *testing.T) {
	values, blindings := randomBatch(t, 7, 2)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	err = verifyMultiple(newTranscript("some_other_protocol"), proof, commitments, crand.Reader)
	assert.ErrorIs(t, err, ErrVerification)
}

func TestVerify_MalformedCommitment(t *testing.T) {
	values, blindings := randomBatch(t, 8, 2)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	bad := append([]Commitment(nil), commitments...)
	for i := range bad[1] {
		bad[1][i] = 0xff
	}
	err = Verify(proof, bad, crand.Reader)
	assert.ErrorIs(t, err, ErrVerification)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestVerify_UnsupportedWidth(t *testing.T) {
	values, blindings := randomBatch(t, 9, 1)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	wide := make([]Commitment, MaxAggregationWidth+1)
	for i := range wide {
		wide[i] = commitments[0]
	}
	err = Verify(proof, wide, crand.Reader)
	assert.ErrorIs(t, err, ErrVerification)
	assert.ErrorIs(t, err, ErrUnsupportedWidth)
}

func TestVerify_Empty(t *testing.T) {
	values, blindings := randomBatch(t, 10, 1)
	proof, _, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(proof, nil, crand.Reader), ErrVerification)
	assert.ErrorIs(t, Verify(nil, []Commitment{{}}, crand.Reader), ErrVerification)
}

func TestVerify_IdentityPointRejected(t *testing.T) {
	values, blindings := randomBatch(t, 11, 1)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	proof.A = Commitment{}
	assert.ErrorIs(t, Verify(proof, commitments, crand.Reader), ErrVerification)
}

// ---------------------------------------------------------------------------
// Generate input errors
// ---------------------------------------------------------------------------

func TestGenerate_LengthMismatch(t *testing.T) {
	_, _, err := Generate([]uint64{1, 2}, []*Scalar{ScalarFromUint64(1)}, crand.Reader)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestGenerate_Empty(t *testing.T) {
	_, _, err := Generate(nil, nil, crand.Reader)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestGenerate_NilBlinding(t *testing.T) {
	_, _, err := Generate([]uint64{1}, []*Scalar{nil}, crand.Reader)
	assert.ErrorIs(t, err, ErrProofGeneration)
}

func TestGenerate_TooWide(t *testing.T) {
	n := MaxAggregationWidth + 1
	values := make([]uint64, n)
	blindings := make([]*Scalar, n)
	for i := range blindings {
		blindings[i] = ScalarFromUint64(uint64(i))
	}
	_, _, err := Generate(values, blindings, crand.Reader)
	assert.ErrorIs(t, err, ErrProofGeneration)
	assert.ErrorIs(t, err, ErrUnsupportedWidth)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, assert.AnError }

func TestGenerate_RandomnessFailure(t *testing.T) {
	_, _, err := Generate([]uint64{1}, []*Scalar{ScalarFromUint64(3)}, failingReader{})
	assert.ErrorIs(t, err, ErrProofGeneration)
	assert.ErrorIs(t, err, assert.AnError)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func TestRangeProofBytes_RoundTrip(t *testing.T) {
	values, blindings := randomBatch(t, 12, 3)
	proof, commitments, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)

	raw := proof.Bytes()
	assert.Len(t, raw, (fixedProofElements+2*proof.Rounds())*32)

	parsed, err := ParseRangeProof(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, parsed.Bytes())
	require.NoError(t, Verify(parsed, commitments, crand.Reader))
}

func TestParseRangeProof_Malformed(t *testing.T) {
	values, blindings := randomBatch(t, 13, 1)
	proof, _, err := Generate(values, blindings, crand.Reader)
	require.NoError(t, err)
	raw := proof.Bytes()

	_, err = ParseRangeProof(raw[:len(raw)-1])
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = ParseRangeProof(raw[:len(raw)-32])
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = ParseRangeProof(nil)
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	badPoint := append([]byte(nil), raw...)
	for i := 0; i < 32; i++ {
		badPoint[i] = 0xff
	}
	_, err = ParseRangeProof(badPoint)
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	// t_x sits at offset 4*32; 0xff..ff is not a canonical scalar.
	badScalar := append([]byte(nil), raw...)
	for i := 4 * 32; i < 5*32; i++ {
		badScalar[i] = 0xff
	}
	_, err = ParseRangeProof(badScalar)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestCommitmentFromBytes(t *testing.T) {
	c := Commit(42, ScalarFromUint64(9))
	got, err := CommitmentFromBytes(c[:])
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = CommitmentFromBytes(c[:31])
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestGenerators_Singleton(t *testing.T) {
	pc1, bp1 := generators()
	pc2, bp2 := generators()
	assert.Same(t, pc1, pc2)
	assert.Same(t, bp1, bp2)
	assert.Len(t, bp1.G, MaxAggregationWidth)
	assert.Len(t, bp1.H[0], BitSize)
	assert.Equal(t, 0, pc1.B.Equal(pc1.BBlinding))
}
