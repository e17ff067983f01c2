package rangeproof

import (
	"github.com/bwesterb/go-ristretto"
	"golang.org/x/crypto/sha3"
)

// PedersenGens holds the two fixed bases for value commitments:
// Commit(v, r) = v*B + r*BBlinding.
type PedersenGens struct {
	B         *ristretto.Point
	BBlinding *ristretto.Point
}

func NewPedersenGens() *PedersenGens {
	var base ristretto.Point
	base.SetBase()

	return &PedersenGens{
		B:         hashToPoint(&base),
		BBlinding: &base,
	}
}

// DefaultPedersenGens derives the blinding base by hashing the standard base,
// matching the dalek convention.
func DefaultPedersenGens() *PedersenGens {
	var base ristretto.Point
	base.SetBase()

	h := sha3.New512()
	h.Write(base.Bytes())

	return &PedersenGens{
		B:         &base,
		BBlinding: pointFromUniformBytes(h.Sum(nil)),
	}
}

func (pg *PedersenGens) Commit(value, blinding *ristretto.Scalar) *ristretto.Point {
	return multiscalarMul([]*ristretto.Scalar{value, blinding}, []*ristretto.Point{pg.B, pg.BBlinding})
}

// BulletproofGens holds the G and H generator vectors for the bit commitments
// and the inner-product argument. The vectors are derived deterministically
// from a SHAKE256 chain and are never mutated after construction, so a single
// instance may be shared by any number of concurrent provers and verifiers.
type BulletproofGens struct {
	GensCapacity int64
	GVec         []*ristretto.Point
	HVec         []*ristretto.Point
}

func NewBulletproofGens(gensCapacity int64) *BulletproofGens {
	b := &BulletproofGens{GensCapacity: 0}
	b.IncreaseCapacity(gensCapacity)
	return b
}

// IncreaseCapacity extends the generator vectors without recomputing the
// points already derived.
func (b *BulletproofGens) IncreaseCapacity(capacity int64) {
	if b.GensCapacity >= capacity {
		return
	}

	chainG := NewGeneratorsChain([]byte("G"))
	chainG.FastForward(b.GensCapacity)
	for i := b.GensCapacity; i < capacity; i++ {
		b.GVec = append(b.GVec, chainG.Next())
	}

	chainH := NewGeneratorsChain([]byte("H"))
	chainH.FastForward(b.GensCapacity)
	for i := b.GensCapacity; i < capacity; i++ {
		b.HVec = append(b.HVec, chainH.Next())
	}

	b.GensCapacity = capacity
}

func (b *BulletproofGens) G(n int64) []*ristretto.Point {
	return b.GVec[:n]
}

func (b *BulletproofGens) H(n int64) []*ristretto.Point {
	return b.HVec[:n]
}

type GeneratorsChain struct {
	sha3.ShakeHash
}

func NewGeneratorsChain(label []byte) *GeneratorsChain {
	h := sha3.NewShake256()
	h.Write([]byte("GeneratorsChain"))
	h.Write(label)
	return &GeneratorsChain{h}
}

func (c *GeneratorsChain) FastForward(n int64) {
	for i := 0; i < int(n); i++ {
		var data [64]byte
		c.Read(data[:])
	}
}

func (c *GeneratorsChain) Next() *ristretto.Point {
	var data [64]byte
	c.Read(data[:])
	return pointFromUniformBytes(data[:])
}

func pointFromUniformBytes(key []byte) *ristretto.Point {
	var r1Bytes, r2Bytes [32]byte
	copy(r1Bytes[:], key[:32])
	copy(r2Bytes[:], key[32:])
	var r, r1, r2 ristretto.Point
	return r.Add(r1.SetElligator(&r1Bytes), r2.SetElligator(&r2Bytes))
}
