package rangeproof

import (
	"encoding/hex"
	"testing"

	"github.com/bwesterb/go-ristretto"
	"github.com/stretchr/testify/assert"
)

func createAndVerifyHelper(t *testing.T, bg *BulletproofGens, pg *PedersenGens, n int64, value uint64) {
	assert := assert.New(t)

	var blinding ristretto.Scalar
	blinding.Rand()

	proverTranscript := InitialTranscript("RangeproofTest")
	proof, V, err := ProveRange(bg, pg, proverTranscript, n, value, &blinding)
	assert.Nil(err)

	buf := proof.ToBytes()
	k := 0
	for int64(1)<<k < n {
		k++
	}
	assert.Len(buf, 32*(9+2*k))

	decoded, err := RangeProofFromBytes(buf, n)
	assert.Nil(err)
	assert.Equal(hex.EncodeToString(buf), hex.EncodeToString(decoded.ToBytes()))

	verifierTranscript := InitialTranscript("RangeproofTest")
	assert.Nil(decoded.Verify(bg, pg, verifierTranscript, n, V))
}

func TestCreateAndVerify(t *testing.T) {
	bg := NewBulletproofGens(64)
	pg := DefaultPedersenGens()

	for _, n := range []int64{1, 2, 4, 8, 16, 32, 64} {
		max := ^uint64(0)
		if n < 64 {
			max = (uint64(1) << uint(n)) - 1
		}
		for _, v := range []uint64{0, max / 2, max} {
			createAndVerifyHelper(t, bg, pg, n, v)
		}
	}
}

func TestBitDecomposition(t *testing.T) {
	assert := assert.New(t)

	// n = 8, v = 5: a_L = [1,0,1,0,0,0,0,0], a_R = a_L - 1 componentwise,
	// and <a_L, 2^n> reconstructs v.
	n := 8
	value := uint64(5)
	wantBits := []uint64{1, 0, 1, 0, 0, 0, 0, 0}

	var one ristretto.Scalar
	one.SetOne()

	aL := make([]*ristretto.Scalar, n)
	aR := make([]*ristretto.Scalar, n)
	for i := 0; i < n; i++ {
		bit := (value >> uint(i)) & 1
		assert.Equal(wantBits[i], bit)
		aL[i] = uint64ToScalar(bit)
		var r ristretto.Scalar
		aR[i] = r.Sub(aL[i], &one)
	}

	for i := 0; i < n; i++ {
		var diff ristretto.Scalar
		diff.Sub(aL[i], aR[i])
		assert.True(diff.Equals(&one))
	}

	twoExp := NewScalarExp(uint64ToScalar(2))
	powers := make([]*ristretto.Scalar, n)
	for i := 0; i < n; i++ {
		powers[i] = twoExp.Next()
	}
	assert.True(innerProduct(aL, powers).Equals(uint64ToScalar(value)))
}

func TestConcreteScenario(t *testing.T) {
	assert := assert.New(t)

	bg := NewBulletproofGens(8)
	pg := DefaultPedersenGens()

	var blinding ristretto.Scalar
	blinding.Rand()

	buf, V, err := GenerateRangeProof(bg, pg, 8, 5, &blinding)
	assert.Nil(err)
	assert.Len(buf, 480)

	assert.Nil(VerifyRangeProofBytes(bg, pg, 8, V, buf))

	// Flipping one byte of T_1 in the encoded proof must reject.
	tampered := make([]byte, len(buf))
	copy(tampered, buf)
	tampered[2*32] ^= 0x01
	assert.Equal(ErrInvalidProof, VerifyRangeProofBytes(bg, pg, 8, V, tampered))
}

func TestOutOfRangeValue(t *testing.T) {
	assert := assert.New(t)

	bg := NewBulletproofGens(64)
	pg := DefaultPedersenGens()

	// The prover does not validate the range; it emits a proof the
	// verifier rejects.
	var blinding ristretto.Scalar
	blinding.Rand()

	buf, V, err := GenerateRangeProof(bg, pg, 8, 300, &blinding)
	assert.Nil(err)
	assert.Equal(ErrInvalidProof, VerifyRangeProofBytes(bg, pg, 8, V, buf))

	buf, V, err = GenerateRangeProof(bg, pg, 16, uint64(1)<<20, &blinding)
	assert.Nil(err)
	assert.Equal(ErrInvalidProof, VerifyRangeProofBytes(bg, pg, 16, V, buf))
}

func TestVerifyRejectsTampering(t *testing.T) {
	assert := assert.New(t)

	bg := NewBulletproofGens(16)
	pg := DefaultPedersenGens()

	var blinding ristretto.Scalar
	blinding.Rand()

	proverTranscript := InitialTranscript("RangeproofTest")
	proof, V, err := ProveRange(bg, pg, proverTranscript, 16, 1234, &blinding)
	assert.Nil(err)

	// A different transcript label diverges the challenges.
	wrongLabel := InitialTranscript("SomethingElse")
	assert.Equal(ErrInvalidProof, proof.Verify(bg, pg, wrongLabel, 16, V))

	// A tampered value commitment rejects.
	var base ristretto.Point
	base.SetBase()
	var badV ristretto.Point
	badV.Add(V, &base)
	assert.Equal(ErrInvalidProof, proof.Verify(bg, pg, InitialTranscript("RangeproofTest"), 16, &badV))

	// The untouched proof still verifies.
	assert.Nil(proof.Verify(bg, pg, InitialTranscript("RangeproofTest"), 16, V))
}

func TestProveRangeErrors(t *testing.T) {
	assert := assert.New(t)

	bg := NewBulletproofGens(16)
	pg := DefaultPedersenGens()
	transcript := InitialTranscript("RangeproofTest")

	var blinding ristretto.Scalar
	blinding.Rand()

	_, _, err := ProveRange(bg, pg, transcript, 3, 1, &blinding)
	assert.NotNil(err)
	_, _, err = ProveRange(bg, pg, transcript, 0, 1, &blinding)
	assert.NotNil(err)
	_, _, err = ProveRange(bg, pg, transcript, 128, 1, &blinding)
	assert.NotNil(err)
	_, _, err = ProveRange(bg, pg, transcript, 32, 1, &blinding)
	assert.NotNil(err) // exceeds generator capacity
	_, _, err = ProveRange(bg, pg, transcript, 8, 1, nil)
	assert.NotNil(err)
}

func TestRangeProofFromBytesErrors(t *testing.T) {
	assert := assert.New(t)

	bg := NewBulletproofGens(8)
	pg := DefaultPedersenGens()

	var blinding ristretto.Scalar
	blinding.Rand()

	buf, _, err := GenerateRangeProof(bg, pg, 8, 5, &blinding)
	assert.Nil(err)

	_, err = RangeProofFromBytes(buf[:len(buf)-1], 8)
	assert.NotNil(err)
	_, err = RangeProofFromBytes(append(buf, 0), 8)
	assert.NotNil(err)
	_, err = RangeProofFromBytes(buf[:len(buf)-32], 8)
	assert.NotNil(err)
	_, err = RangeProofFromBytes(nil, 8)
	assert.NotNil(err)
	// Right length for a different n is still wrong for n=8.
	_, err = RangeProofFromBytes(buf, 16)
	assert.NotNil(err)
	_, err = RangeProofFromBytes(buf, 7)
	assert.NotNil(err)

	// A non-canonical point encoding rejects.
	bad := make([]byte, len(buf))
	copy(bad, buf)
	for i := 0; i < 32; i++ {
		bad[i] = 0xff
	}
	_, err = RangeProofFromBytes(bad, 8)
	assert.NotNil(err)
}
