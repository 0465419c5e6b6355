package rangeproof

import (
	"fmt"
	"math/bits"

	"github.com/gtank/ristretto255"
)

// innerProductProof shows knowledge of vectors a, b with
// P = <a, G> + <b, H'> + <a, b>*Q in log2(n) rounds.
type innerProductProof struct {
	L []Commitment
	R []Commitment
	A *Scalar
	B *Scalar
}

// createInnerProductProof runs the prover. hFactors scale H on the first
// round only, which lets the caller prove against H'[i] = hFactors[i]*H[i]
// without materialising H'. len(G) must be a power of two.
func createInnerProductProof(
	t *transcript,
	q *ristretto255.Element,
	hFactors []*Scalar,
	gVec, hVec []*ristretto255.Element,
	aVec, bVec []*Scalar,
) *innerProductProof {
	n := len(gVec)
	t.innerProductDomainSep(n)

	lgN := bits.Len(uint(n)) - 1
	proof := &innerProductProof{
		L: make([]Commitment, 0, lgN),
		R: make([]Commitment, 0, lgN),
	}

	g, h, a, b := gVec, hVec, aVec, bVec
	factors := hFactors
	factor := func(i int) *Scalar {
		if factors == nil {
			return ScalarFromUint64(1)
		}
		return factors[i]
	}

	for n > 1 {
		n /= 2
		aL, aR := a[:n], a[n:2*n]
		bL, bR := b[:n], b[n:2*n]
		gL, gR := g[:n], g[n:2*n]
		hL, hR := h[:n], h[n:2*n]

		cL := innerProduct(aL, bR)
		cR := innerProduct(aR, bL)

		lScalars := make([]*Scalar, 0, 2*n+1)
		lPoints := make([]*ristretto255.Element, 0, 2*n+1)
		rScalars := make([]*Scalar, 0, 2*n+1)
		rPoints := make([]*ristretto255.Element, 0, 2*n+1)
		for i := 0; i < n; i++ {
			lScalars = append(lScalars, aL[i])
			lPoints = append(lPoints, gR[i])
			rScalars = append(rScalars, aR[i])
			rPoints = append(rPoints, gL[i])
		}
		for i := 0; i < n; i++ {
			lScalars = append(lScalars, scalarMul(bR[i], factor(i)))
			lPoints = append(lPoints, hL[i])
			rScalars = append(rScalars, scalarMul(bL[i], factor(n+i)))
			rPoints = append(rPoints, hR[i])
		}
		lScalars = append(lScalars, cL)
		lPoints = append(lPoints, q)
		rScalars = append(rScalars, cR)
		rPoints = append(rPoints, q)

		lC := CompressPoint(ristretto255.NewElement().VarTimeMultiScalarMult(lScalars, lPoints))
		rC := CompressPoint(ristretto255.NewElement().VarTimeMultiScalarMult(rScalars, rPoints))
		proof.L = append(proof.L, lC)
		proof.R = append(proof.R, rC)
		t.appendCommitment("L", lC)
		t.appendCommitment("R", rC)

		u := t.challengeScalar("u")
		uInv := scalarInv(u)

		nextA := make([]*Scalar, n)
		nextB := make([]*Scalar, n)
		nextG := make([]*ristretto255.Element, n)
		nextH := make([]*ristretto255.Element, n)
		for i := 0; i < n; i++ {
			nextA[i] = scalarAdd(scalarMul(aL[i], u), scalarMul(uInv, aR[i]))
			nextB[i] = scalarAdd(scalarMul(bL[i], uInv), scalarMul(u, bR[i]))
			nextG[i] = ristretto255.NewElement().VarTimeMultiScalarMult(
				[]*Scalar{uInv, u},
				[]*ristretto255.Element{gL[i], gR[i]},
			)
			nextH[i] = ristretto255.NewElement().VarTimeMultiScalarMult(
				[]*Scalar{scalarMul(u, factor(i)), scalarMul(uInv, factor(n+i))},
				[]*ristretto255.Element{hL[i], hR[i]},
			)
		}
		a, b, g, h = nextA, nextB, nextG, nextH
		factors = nil
	}

	proof.A = a[0]
	proof.B = b[0]
	return proof
}

// verificationScalars replays the transcript and returns u_i^2, u_i^-2 and
// the s vector used to fold G and H into a single multiscalar check.
func (p *innerProductProof) verificationScalars(n int, t *transcript) (uSq, uInvSq, s []*Scalar, err error) {
	lgN := len(p.L)
	if lgN >= 32 || len(p.R) != lgN || n != 1<<lgN {
		return nil, nil, nil, fmt.Errorf("%w: inner product proof has %d rounds for %d generators",
			ErrVerification, lgN, n)
	}

	t.innerProductDomainSep(n)

	challenges := make([]*Scalar, lgN)
	for i := 0; i < lgN; i++ {
		if err := t.validateAndAppendPoint("L", p.L[i]); err != nil {
			return nil, nil, nil, err
		}
		if err := t.validateAndAppendPoint("R", p.R[i]); err != nil {
			return nil, nil, nil, err
		}
		challenges[i] = t.challengeScalar("u")
	}

	allInv := ScalarFromUint64(1)
	uSq = make([]*Scalar, lgN)
	uInvSq = make([]*Scalar, lgN)
	for i, u := range challenges {
		uInv := scalarInv(u)
		allInv = scalarMul(allInv, uInv)
		uSq[i] = scalarMul(u, u)
		uInvSq[i] = scalarMul(uInv, uInv)
	}

	// Challenges are stored in creation order [u_k, ..., u_1].
	s = make([]*Scalar, n)
	s[0] = allInv
	for i := 1; i < n; i++ {
		lgI := bits.Len(uint(i)) - 1
		k := 1 << lgI
		s[i] = scalarMul(s[i-k], uSq[lgN-1-lgI])
	}
	return uSq, uInvSq, s, nil
}
