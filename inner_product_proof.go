package rangeproof

import (
	"fmt"
	"math/bits"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

// InnerProductProof compresses two length-n vectors into 2*log2(n) points and
// two scalars. The rounds are driven by the shared transcript, so the verifier
// can recover every round challenge from the L/R points alone.
type InnerProductProof struct {
	LVec []*ristretto.Point
	RVec []*ristretto.Point
	A, B *ristretto.Scalar
}

// CreateInnerProductProof folds the vectors round by round. The first round
// also folds in the per-generator factors (1 for G, y^-i for H), so callers
// pass the unscaled generator vectors.
func CreateInnerProductProof(transcript *merlin.Transcript, Q *ristretto.Point, gFactors, hFactors []*ristretto.Scalar, gVec, hVec []*ristretto.Point, aVec, bVec []*ristretto.Scalar) *InnerProductProof {
	n := len(gVec)

	if len(hVec) != n ||
		len(aVec) != n ||
		len(bVec) != n ||
		len(gFactors) != n ||
		len(hFactors) != n {
		panic(fmt.Sprintf("Invalid input vectors %d, %d, %d, %d, %d, %d", len(gVec), len(hVec), len(aVec), len(bVec), len(gFactors), len(hFactors)))
	}

	G := gVec
	H := hVec
	a := aVec
	b := bVec

	if bits.OnesCount32(uint32(n)) > 1 {
		panic(fmt.Sprintf("CreateInnerProductProof Invalid n %d", n))
	}

	InnerproductDomainSep(uint64(n), transcript)

	var LVec, RVec []*ristretto.Point

	if n != 1 {
		n = n / 2
		aL, aR := a[:n], a[n:]
		bL, bR := b[:n], b[n:]
		gL, gR := G[:n], G[n:]
		hL, hR := H[:n], H[n:]

		cL := innerProduct(aL, bR)
		cR := innerProduct(aR, bL)

		chainAL := make([]*ristretto.Scalar, n)
		for i := range aL {
			var r ristretto.Scalar
			chainAL[i] = r.Mul(aL[i], gFactors[n+i])
		}
		for i := range bR {
			var r ristretto.Scalar
			chainAL = append(chainAL, r.Mul(bR[i], hFactors[i]))
		}
		chainAL = append(chainAL, cL)

		chainGR := make([]*ristretto.Point, 0)
		chainGR = append(chainGR, gR...)
		chainGR = append(chainGR, hL...)
		chainGR = append(chainGR, Q)

		L := vartimeMultiscalarMul(chainAL, chainGR)

		chainAR := make([]*ristretto.Scalar, n)
		for i := range aR {
			var r ristretto.Scalar
			chainAR[i] = r.Mul(aR[i], gFactors[i])
		}
		for i := range bL {
			var r ristretto.Scalar
			chainAR = append(chainAR, r.Mul(bL[i], hFactors[n+i]))
		}
		chainAR = append(chainAR, cR)

		chainGL := make([]*ristretto.Point, 0)
		chainGL = append(chainGL, gL...)
		chainGL = append(chainGL, hR...)
		chainGL = append(chainGL, Q)
		R := vartimeMultiscalarMul(chainAR, chainGL)

		LVec = append(LVec, L)
		RVec = append(RVec, R)

		AppendPoint("L", L, transcript)
		AppendPoint("R", R, transcript)

		u := ChallengeScalar("u", transcript)
		var uInv ristretto.Scalar
		uInv.Inverse(u)

		for i := 0; i < n; i++ {
			var r1, r2 ristretto.Scalar
			aL[i].Add(r1.Mul(aL[i], u), r2.Mul(&uInv, aR[i]))
			var r3, r4 ristretto.Scalar
			bL[i].Add(r3.Mul(bL[i], &uInv), r4.Mul(u, bR[i]))
			var r5, r6 ristretto.Scalar
			r5.Mul(&uInv, gFactors[i])
			r6.Mul(u, gFactors[n+i])
			gL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{&r5, &r6}, []*ristretto.Point{gL[i], gR[i]})
			var r7, r8 ristretto.Scalar
			r7.Mul(u, hFactors[i])
			r8.Mul(&uInv, hFactors[n+i])
			hL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{&r7, &r8}, []*ristretto.Point{hL[i], hR[i]})
		}

		a = aL
		b = bL
		G = gL
		H = hL
	}

	for n != 1 {
		n = n / 2

		aL, aR := a[:n], a[n:]
		bL, bR := b[:n], b[n:]
		gL, gR := G[:n], G[n:]
		hL, hR := H[:n], H[n:]

		cL := innerProduct(aL, bR)
		cR := innerProduct(aR, bL)

		chainAL := make([]*ristretto.Scalar, 0)
		chainAL = append(chainAL, aL...)
		chainAL = append(chainAL, bR...)
		chainAL = append(chainAL, cL)
		chainGR := make([]*ristretto.Point, 0)
		chainGR = append(chainGR, gR...)
		chainGR = append(chainGR, hL...)
		chainGR = append(chainGR, Q)
		L := vartimeMultiscalarMul(chainAL, chainGR)

		chainAR := make([]*ristretto.Scalar, 0)
		chainAR = append(chainAR, aR...)
		chainAR = append(chainAR, bL...)
		chainAR = append(chainAR, cR)
		chainGL := make([]*ristretto.Point, 0)
		chainGL = append(chainGL, gL...)
		chainGL = append(chainGL, hR...)
		chainGL = append(chainGL, Q)
		R := vartimeMultiscalarMul(chainAR, chainGL)

		LVec = append(LVec, L)
		RVec = append(RVec, R)
		AppendPoint("L", L, transcript)
		AppendPoint("R", R, transcript)

		u := ChallengeScalar("u", transcript)
		var uInv ristretto.Scalar
		uInv.Inverse(u)

		for i := 0; i < n; i++ {
			var r1, r2 ristretto.Scalar
			aL[i].Add(r1.Mul(aL[i], u), r2.Mul(&uInv, aR[i]))
			var r3, r4 ristretto.Scalar
			bL[i].Add(r3.Mul(bL[i], &uInv), r4.Mul(u, bR[i]))
			gL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{&uInv, u}, []*ristretto.Point{gL[i], gR[i]})
			hL[i] = vartimeMultiscalarMul([]*ristretto.Scalar{u, &uInv}, []*ristretto.Point{hL[i], hR[i]})
		}

		a = aL
		b = bL
		G = gL
		H = hL
	}

	return &InnerProductProof{
		LVec: LVec,
		RVec: RVec,
		A:    a[0],
		B:    b[0],
	}
}

// VerificationScalars replays the transcript interaction of the argument and
// returns, for a vector size n, the per-round challenge squares u_j^2 and
// u_j^-2 plus the exponent vector s. The componentwise inverses 1/s are the
// reverse of s, a symmetry the range-proof verifier relies on.
func (p *InnerProductProof) VerificationScalars(n int64, transcript *merlin.Transcript) ([]*ristretto.Scalar, []*ristretto.Scalar, []*ristretto.Scalar, error) {
	k := len(p.LVec)
	if len(p.RVec) != k {
		return nil, nil, nil, fmt.Errorf("VerificationScalars mismatched rounds %d, %d", k, len(p.RVec))
	}
	if k >= 32 || n != int64(1)<<k {
		return nil, nil, nil, fmt.Errorf("VerificationScalars wrong number of rounds %d for n %d", k, n)
	}

	InnerproductDomainSep(uint64(n), transcript)

	challenges := make([]*ristretto.Scalar, k)
	for j := 0; j < k; j++ {
		AppendPoint("L", p.LVec[j], transcript)
		AppendPoint("R", p.RVec[j], transcript)
		challenges[j] = ChallengeScalar("u", transcript)
	}

	uSq := make([]*ristretto.Scalar, k)
	uInvSq := make([]*ristretto.Scalar, k)
	var allInv ristretto.Scalar
	allInv.SetOne()
	for j := 0; j < k; j++ {
		var sq, inv, invSq ristretto.Scalar
		sq.Mul(challenges[j], challenges[j])
		inv.Inverse(challenges[j])
		invSq.Mul(&inv, &inv)
		uSq[j] = &sq
		uInvSq[j] = &invSq
		allInv.Mul(&allInv, &inv)
	}

	// s[0] = prod u_j^-1; each further entry reuses s[i - 2^lg(i)], so the
	// whole vector costs n multiplications.
	s := make([]*ristretto.Scalar, n)
	var s0 ristretto.Scalar
	s0.Add(&s0, &allInv)
	s[0] = &s0
	for i := int64(1); i < n; i++ {
		lgI := bits.Len64(uint64(i)) - 1
		kk := int64(1) << lgI
		var r ristretto.Scalar
		s[i] = r.Mul(s[i-kk], uSq[k-1-lgI])
	}

	return uSq, uInvSq, s, nil
}

func (p *InnerProductProof) ToBytes() []byte {
	var buf []byte

	for i := range p.LVec {
		buf = append(buf, p.LVec[i].Bytes()...)
		buf = append(buf, p.RVec[i].Bytes()...)
	}
	buf = append(buf, p.A.Bytes()...)
	buf = append(buf, p.B.Bytes()...)

	return buf
}

// InnerProductProofFromBytes decodes 2k points followed by the two final
// scalars. Point encodings are validated; scalars decode reduced.
func InnerProductProofFromBytes(data []byte) (*InnerProductProof, error) {
	if len(data)%32 != 0 || len(data) < 64 || (len(data)/32)%2 != 0 {
		return nil, fmt.Errorf("InnerProductProofFromBytes invalid length %d", len(data))
	}
	k := (len(data)/32 - 2) / 2

	proof := &InnerProductProof{
		LVec: make([]*ristretto.Point, k),
		RVec: make([]*ristretto.Point, k),
	}
	for j := 0; j < k; j++ {
		var buf [32]byte
		var L, R ristretto.Point
		copy(buf[:], data[2*j*32:])
		if !L.SetBytes(&buf) {
			return nil, fmt.Errorf("InnerProductProofFromBytes invalid L point %d", j)
		}
		copy(buf[:], data[(2*j+1)*32:])
		if !R.SetBytes(&buf) {
			return nil, fmt.Errorf("InnerProductProofFromBytes invalid R point %d", j)
		}
		proof.LVec[j] = &L
		proof.RVec[j] = &R
	}

	var aBuf, bBuf [32]byte
	copy(aBuf[:], data[2*k*32:])
	copy(bBuf[:], data[(2*k+1)*32:])
	var a, b ristretto.Scalar
	proof.A = a.SetBytes(&aBuf)
	proof.B = b.SetBytes(&bBuf)

	return proof, nil
}
