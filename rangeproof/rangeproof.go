// Package rangeproof implements aggregated 64-bit Bulletproofs range proofs
// over ristretto255.
//
// A single proof covers a batch of Pedersen commitments. Batches are padded to
// a power of two by repeating the last (value, blinding) pair, so the padded
// commitments are indistinguishable from genuine duplicate outputs.
package rangeproof

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gtank/ristretto255"
)

// RangeProof attests that every value behind a vector of commitments lies in
// [0, 2^64). Points are kept compressed until verification.
type RangeProof struct {
	A  Commitment
	S  Commitment
	T1 Commitment
	T2 Commitment

	TX         *Scalar
	TXBlinding *Scalar
	EBlinding  *Scalar

	ipp innerProductProof
}

// Generate proves that each value lies in [0, 2^64).
//
// values and blindings must have the same non-zero length. Both are padded to
// the next power of two with their own last element, keeping the padded value
// paired with its padded blinding. The returned commitments cover the padded
// batch; only the first len(values) are meaningful to the caller.
func Generate(values []uint64, blindings []*Scalar, rng io.Reader) (*RangeProof, []Commitment, error) {
	if len(values) != len(blindings) {
		return nil, nil, fmt.Errorf("%w: %d values, %d blindings", ErrLengthMismatch, len(values), len(blindings))
	}
	if rng == nil {
		return nil, nil, fmt.Errorf("%w: nil rng", ErrProofGeneration)
	}
	for i, b := range blindings {
		if b == nil {
			return nil, nil, fmt.Errorf("%w: blinding[%d] is nil", ErrProofGeneration, i)
		}
	}

	paddedValues, err := PadToPowerOfTwo(values)
	if err != nil {
		return nil, nil, err
	}
	paddedBlindings, err := PadToPowerOfTwo(blindings)
	if err != nil {
		return nil, nil, err
	}
	if len(paddedValues) > MaxAggregationWidth {
		return nil, nil, fmt.Errorf("%w: %w: %d padded values exceeds %d",
			ErrProofGeneration, ErrUnsupportedWidth, len(paddedValues), MaxAggregationWidth)
	}

	proof, commitments, err := proveMultiple(newTranscript(DomainSeparatorLabel), paddedValues, paddedBlindings, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrProofGeneration, err)
	}
	return proof, commitments, nil
}

// Verify checks proof against commitments. The commitments are padded exactly
// as Generate pads them, so callers may pass either the full padded vector or
// only the meaningful prefix. Any failure, including malformed encodings and
// unsupported widths, wraps ErrVerification.
func Verify(proof *RangeProof, commitments []Commitment, rng io.Reader) error {
	if proof == nil {
		return fmt.Errorf("%w: nil proof", ErrVerification)
	}
	if rng == nil {
		return fmt.Errorf("%w: nil rng", ErrVerification)
	}
	padded, err := PadToPowerOfTwo(commitments)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if len(padded) > MaxAggregationWidth {
		return fmt.Errorf("%w: %w: %d padded commitments exceeds %d",
			ErrVerification, ErrUnsupportedWidth, len(padded), MaxAggregationWidth)
	}
	return verifyMultiple(newTranscript(DomainSeparatorLabel), proof, padded, rng)
}

func proveMultiple(t *transcript, values []uint64, blindings []*Scalar, rng io.Reader) (*RangeProof, []Commitment, error) {
	pc, bp := generators()
	n, m := BitSize, len(values)
	nm := n * m
	gVec, hVec := bp.vectors(m)

	t.rangeProofDomainSep(n, m)
	commitments := make([]Commitment, m)
	witness := make([][]byte, 0, 2*m)
	for j, v := range values {
		commitments[j] = CompressPoint(pc.commit(ScalarFromUint64(v), blindings[j]))
		t.appendCommitment("V", commitments[j])

		var vb [8]byte
		binary.LittleEndian.PutUint64(vb[:], v)
		witness = append(witness, vb[:], blindings[j].Encode(nil))
	}

	prng, err := t.buildRNG(witness, rng)
	if err != nil {
		return nil, nil, err
	}

	one := ScalarFromUint64(1)
	zero := ristretto255.NewScalar()
	minusOne := scalarNeg(one)

	aL := make([]*Scalar, nm)
	aR := make([]*Scalar, nm)
	for j, v := range values {
		for i := 0; i < n; i++ {
			if (v>>uint(i))&1 == 1 {
				aL[j*n+i], aR[j*n+i] = one, zero
			} else {
				aL[j*n+i], aR[j*n+i] = zero, minusOne
			}
		}
	}

	alpha := prng.scalar()
	rho := prng.scalar()
	sL := prng.scalars(nm)
	sR := prng.scalars(nm)

	bases := make([]*ristretto255.Element, 0, 2*nm+1)
	bases = append(bases, pc.BBlinding)
	bases = append(bases, gVec...)
	bases = append(bases, hVec...)

	aCoeffs := make([]*Scalar, 0, 2*nm+1)
	aCoeffs = append(aCoeffs, alpha)
	aCoeffs = append(aCoeffs, aL...)
	aCoeffs = append(aCoeffs, aR...)
	bigA := CompressPoint(ristretto255.NewElement().MultiScalarMult(aCoeffs, bases))

	sCoeffs := make([]*Scalar, 0, 2*nm+1)
	sCoeffs = append(sCoeffs, rho)
	sCoeffs = append(sCoeffs, sL...)
	sCoeffs = append(sCoeffs, sR...)
	bigS := CompressPoint(ristretto255.NewElement().MultiScalarMult(sCoeffs, bases))

	t.appendCommitment("A", bigA)
	t.appendCommitment("S", bigS)
	y := t.challengeScalar("y")
	z := t.challengeScalar("z")
	zz := scalarMul(z, z)

	// l(X) = (aL - z) + sL*X
	// r(X) = y^k o (aR + z + sR*X) + z^(2+j) * 2^i, for k = j*n + i
	l0 := make([]*Scalar, nm)
	l1 := make([]*Scalar, nm)
	r0 := make([]*Scalar, nm)
	r1 := make([]*Scalar, nm)
	expY := one
	zPow := zz
	for j := 0; j < m; j++ {
		exp2 := one
		for i := 0; i < n; i++ {
			k := j*n + i
			l0[k] = scalarSub(aL[k], z)
			l1[k] = sL[k]
			r0[k] = scalarAdd(scalarMul(expY, scalarAdd(aR[k], z)), scalarMul(zPow, exp2))
			r1[k] = scalarMul(expY, sR[k])
			expY = scalarMul(expY, y)
			exp2 = scalarAdd(exp2, exp2)
		}
		zPow = scalarMul(zPow, z)
	}

	t1 := scalarAdd(innerProduct(l0, r1), innerProduct(l1, r0))
	t2 := innerProduct(l1, r1)
	tau1 := prng.scalar()
	tau2 := prng.scalar()
	bigT1 := CompressPoint(pc.commit(t1, tau1))
	bigT2 := CompressPoint(pc.commit(t2, tau2))

	t.appendCommitment("T_1", bigT1)
	t.appendCommitment("T_2", bigT2)
	x := t.challengeScalar("x")

	lVec := make([]*Scalar, nm)
	rVec := make([]*Scalar, nm)
	for k := 0; k < nm; k++ {
		lVec[k] = scalarAdd(l0[k], scalarMul(l1[k], x))
		rVec[k] = scalarAdd(r0[k], scalarMul(r1[k], x))
	}
	tX := innerProduct(lVec, rVec)

	tXBlinding := scalarAdd(scalarMul(tau2, scalarMul(x, x)), scalarMul(tau1, x))
	zPow = zz
	for j := 0; j < m; j++ {
		tXBlinding = scalarAdd(tXBlinding, scalarMul(zPow, blindings[j]))
		zPow = scalarMul(zPow, z)
	}
	eBlinding := scalarAdd(alpha, scalarMul(rho, x))

	t.appendScalar("t_x", tX)
	t.appendScalar("t_x_blinding", tXBlinding)
	t.appendScalar("e_blinding", eBlinding)
	w := t.challengeScalar("w")
	q := ristretto255.NewElement().ScalarMult(w, pc.B)

	hFactors := powers(scalarInv(y), nm)
	ipp := createInnerProductProof(t, q, hFactors, gVec, hVec, lVec, rVec)

	return &RangeProof{
		A:          bigA,
		S:          bigS,
		T1:         bigT1,
		T2:         bigT2,
		TX:         tX,
		TXBlinding: tXBlinding,
		EBlinding:  eBlinding,
		ipp:        *ipp,
	}, commitments, nil
}

func verifyMultiple(t *transcript, proof *RangeProof, commitments []Commitment, rng io.Reader) error {
	pc, bp := generators()
	n, m := BitSize, len(commitments)
	nm := n * m

	if proof.TX == nil || proof.TXBlinding == nil || proof.EBlinding == nil ||
		proof.ipp.A == nil || proof.ipp.B == nil {
		return fmt.Errorf("%w: incomplete proof", ErrVerification)
	}

	vPoints := make([]*ristretto255.Element, m)
	for j, c := range commitments {
		p, err := c.Decompress()
		if err != nil {
			return fmt.Errorf("%w: commitment[%d]: %w", ErrVerification, j, err)
		}
		vPoints[j] = p
	}

	t.rangeProofDomainSep(n, m)
	for _, c := range commitments {
		t.appendCommitment("V", c)
	}
	if err := t.validateAndAppendPoint("A", proof.A); err != nil {
		return err
	}
	if err := t.validateAndAppendPoint("S", proof.S); err != nil {
		return err
	}
	y := t.challengeScalar("y")
	z := t.challengeScalar("z")
	zz := scalarMul(z, z)
	minusZ := scalarNeg(z)

	if err := t.validateAndAppendPoint("T_1", proof.T1); err != nil {
		return err
	}
	if err := t.validateAndAppendPoint("T_2", proof.T2); err != nil {
		return err
	}
	x := t.challengeScalar("x")

	t.appendScalar("t_x", proof.TX)
	t.appendScalar("t_x_blinding", proof.TXBlinding)
	t.appendScalar("e_blinding", proof.EBlinding)
	w := t.challengeScalar("w")

	// Random weight for the t(x) check batched into the inner product check.
	c, err := RandomScalar(rng)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	uSq, uInvSq, s, err := proof.ipp.verificationScalars(nm, t)
	if err != nil {
		return err
	}

	fixed := []Commitment{proof.A, proof.S, proof.T1, proof.T2}
	fixed = append(fixed, proof.ipp.L...)
	fixed = append(fixed, proof.ipp.R...)
	fixedPoints := make([]*ristretto255.Element, len(fixed))
	for i, fc := range fixed {
		p, err := fc.Decompress()
		if err != nil {
			return fmt.Errorf("%w: proof point %d: %w", ErrVerification, i, err)
		}
		fixedPoints[i] = p
	}

	a, b := proof.ipp.A, proof.ipp.B
	cx := scalarMul(c, x)

	scalars := make([]*Scalar, 0, 2*nm+len(fixed)+2+m)
	scalars = append(scalars, ScalarFromUint64(1), x, cx, scalarMul(cx, x))
	scalars = append(scalars, uSq...)
	scalars = append(scalars, uInvSq...)

	points := make([]*ristretto255.Element, 0, cap(scalars))
	points = append(points, fixedPoints...)

	// -e_blinding - c*t_x_blinding on BBlinding
	scalars = append(scalars, scalarSub(scalarNeg(proof.EBlinding), scalarMul(c, proof.TXBlinding)))
	points = append(points, pc.BBlinding)

	// w*(t_x - a*b) + c*(delta - t_x) on B
	basepointScalar := scalarAdd(
		scalarMul(w, scalarSub(proof.TX, scalarMul(a, b))),
		scalarMul(c, scalarSub(delta(n, m, y, z), proof.TX)),
	)
	scalars = append(scalars, basepointScalar)
	points = append(points, pc.B)

	gVec, hVec := bp.vectors(m)
	for k := 0; k < nm; k++ {
		scalars = append(scalars, scalarSub(minusZ, scalarMul(a, s[k])))
	}
	points = append(points, gVec...)

	yInvPow := powers(scalarInv(y), nm)
	twoPow := powers(ScalarFromUint64(2), n)
	zPow := ScalarFromUint64(1)
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			k := j*n + i
			zAnd2 := scalarMul(zPow, twoPow[i])
			hk := scalarAdd(z, scalarMul(yInvPow[k], scalarSub(scalarMul(zz, zAnd2), scalarMul(b, s[nm-1-k]))))
			scalars = append(scalars, hk)
		}
		zPow = scalarMul(zPow, z)
	}
	points = append(points, hVec...)

	zPow = ScalarFromUint64(1)
	czz := scalarMul(c, zz)
	for j := 0; j < m; j++ {
		scalars = append(scalars, scalarMul(czz, zPow))
		zPow = scalarMul(zPow, z)
	}
	points = append(points, vPoints...)

	check := ristretto255.NewElement().VarTimeMultiScalarMult(scalars, points)
	if check.Equal(ristretto255.NewElement()) != 1 {
		return ErrVerification
	}
	return nil
}

// delta computes (z - z^2) * <1, y^nm> - sum_j z^(j+3) * <1, 2^n>.
func delta(n, m int, y, z *Scalar) *Scalar {
	sumY := sumOfPowers(y, n*m)
	sum2 := sumOfPowers(ScalarFromUint64(2), n)
	sumZ := sumOfPowers(z, m)
	zz := scalarMul(z, z)
	return scalarSub(
		scalarMul(scalarSub(z, zz), sumY),
		scalarMul(scalarMul(scalarMul(zz, z), sum2), sumZ),
	)
}
