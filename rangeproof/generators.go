package rangeproof

import (
	"encoding/binary"
	"sync"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/sha3"
)

const (
	// BitSize is the range every committed value is proven to lie in: [0, 2^BitSize).
	BitSize = 64

	// MaxAggregationWidth is the largest padded batch one proof may cover.
	// It bounds the generator tables and is checked by Verify before any
	// point arithmetic; it is not inferred from the proof encoding.
	MaxAggregationWidth = 64
)

// PedersenGens holds the two bases of a Pedersen commitment v*B + r*BBlinding.
type PedersenGens struct {
	B         *ristretto255.Element
	BBlinding *ristretto255.Element
}

func (g *PedersenGens) commit(value, blinding *Scalar) *ristretto255.Element {
	return ristretto255.NewElement().MultiScalarMult(
		[]*Scalar{value, blinding},
		[]*ristretto255.Element{g.B, g.BBlinding},
	)
}

// BulletproofGens holds the per-party vector generators G[j][i], H[j][i]
// for j < MaxAggregationWidth parties and i < BitSize bits.
type BulletproofGens struct {
	G [][]*ristretto255.Element
	H [][]*ristretto255.Element
}

// vectors returns the concatenated G and H vectors for the first m parties.
func (g *BulletproofGens) vectors(m int) (gVec, hVec []*ristretto255.Element) {
	gVec = make([]*ristretto255.Element, 0, m*BitSize)
	hVec = make([]*ristretto255.Element, 0, m*BitSize)
	for j := 0; j < m; j++ {
		gVec = append(gVec, g.G[j]...)
		hVec = append(hVec, g.H[j]...)
	}
	return gVec, hVec
}

var (
	gensOnce sync.Once
	pcGens   *PedersenGens
	bpGens   *BulletproofGens
)

// generators returns the process-wide generator tables, building them on first
// use. The tables are never mutated afterwards and are shared without locking.
func generators() (*PedersenGens, *BulletproofGens) {
	gensOnce.Do(func() {
		b := ristretto255.NewElement().Base()
		digest := sha3.Sum512(b.Encode(nil))
		pcGens = &PedersenGens{
			B:         b,
			BBlinding: ristretto255.NewElement().FromUniformBytes(digest[:]),
		}

		bpGens = &BulletproofGens{
			G: make([][]*ristretto255.Element, MaxAggregationWidth),
			H: make([][]*ristretto255.Element, MaxAggregationWidth),
		}
		for j := 0; j < MaxAggregationWidth; j++ {
			bpGens.G[j] = make([]*ristretto255.Element, BitSize)
			bpGens.H[j] = make([]*ristretto255.Element, BitSize)
			for i := 0; i < BitSize; i++ {
				bpGens.G[j][i] = hashToPoint("G", j, i)
				bpGens.H[j][i] = hashToPoint("H", j, i)
			}
		}
	})
	return pcGens, bpGens
}

func hashToPoint(label string, party, index int) *ristretto255.Element {
	h := sha3.NewCShake256(nil, []byte("mobilecoin bulletproof generators"))
	var buf [8]byte
	_, _ = h.Write([]byte(label))
	binary.LittleEndian.PutUint32(buf[:4], uint32(party))
	binary.LittleEndian.PutUint32(buf[4:], uint32(index))
	_, _ = h.Write(buf[:])

	var wide [64]byte
	_, _ = h.Read(wide[:])
	return ristretto255.NewElement().FromUniformBytes(wide[:])
}
