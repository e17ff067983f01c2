package rangeproof

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

// ErrInvalidProof is the only error a failed verification produces; which
// sub-check failed is deliberately not exposed.
var ErrInvalidProof = errors.New("rangeproof: invalid proof")

// RangeProof attests that a committed value lies in [0, 2^n). Together with
// the inner-product argument it serializes to exactly 32*(9+2k) bytes for
// k = log2(n).
type RangeProof struct {
	A, S       *ristretto.Point
	T1, T2     *ristretto.Point
	TX         *ristretto.Scalar
	TXBlinding *ristretto.Scalar
	EBlinding  *ristretto.Scalar
	IPPProof   *InnerProductProof
}

func checkBitsize(n int64, bg *BulletproofGens) error {
	if n < 1 || n > 64 || bits.OnesCount64(uint64(n)) != 1 {
		return fmt.Errorf("InvalidBitsize %d", n)
	}
	if bg.GensCapacity < n {
		return fmt.Errorf("InvalidGeneratorsLength %d, %d", bg.GensCapacity, n)
	}
	return nil
}

// ProveRange creates a range proof for value under the caller's blinding
// scalar and returns it together with the value commitment V appended to the
// transcript. The value is not checked against the range: an out-of-range
// value yields a proof the verifier rejects.
func ProveRange(bg *BulletproofGens, pg *PedersenGens, transcript *merlin.Transcript, n int64, value uint64, vBlinding *ristretto.Scalar) (*RangeProof, *ristretto.Point, error) {
	if err := checkBitsize(n, bg); err != nil {
		return nil, nil, err
	}
	if vBlinding == nil {
		return nil, nil, errors.New("ProveRange missing value blinding")
	}

	RangeproofDomainSep(n, transcript)

	V := pg.Commit(uint64ToScalar(value), vBlinding)

	var aBlinding ristretto.Scalar
	aBlinding.Rand()
	var A ristretto.Point
	A.ScalarMult(pg.BBlinding, &aBlinding)

	// If v_i = 0, we add a_L[i] * G[i] + a_R[i] * H[i] = - H[i]
	// If v_i = 1, we add a_L[i] * G[i] + a_R[i] * H[i] =   G[i]
	Gs := bg.G(n)
	Hs := bg.H(n)

	for i := range Gs {
		var point ristretto.Point
		point.Neg(Hs[i])

		v_i := (value >> uint(i)) & 1
		if v_i == 1 {
			point = *Gs[i]
		}
		A.Add(&A, &point)
	}

	var sBlinding ristretto.Scalar
	sBlinding.Rand()

	sL := make([]*ristretto.Scalar, n)
	sR := make([]*ristretto.Scalar, n)
	for i := 0; i < int(n); i++ {
		var s1, s2 ristretto.Scalar
		sL[i] = s1.Rand()
		sR[i] = s2.Rand()
	}

	// Compute S = <s_L, G> + <s_R, H> + s_blinding * B_blinding
	s1 := append([]*ristretto.Scalar{&sBlinding}, sL...)
	s1 = append(s1, sR...)
	s2 := append([]*ristretto.Point{pg.BBlinding}, Gs...)
	s2 = append(s2, Hs...)
	S := multiscalarMul(s1, s2)

	AppendPoint("V", V, transcript)
	AppendPoint("A", &A, transcript)
	AppendPoint("S", S, transcript)

	y := ChallengeScalar("y", transcript)
	z := ChallengeScalar("z", transcript)
	var zz ristretto.Scalar
	zz.Mul(z, z)

	lPoly := ZeroVecPoly1(n)
	rPoly := ZeroVecPoly1(n)

	var expY, exp2 ristretto.Scalar
	expY.SetOne()
	exp2.SetOne()

	for i := 0; i < int(n); i++ {
		a_L_i := uint64ToScalar((value >> uint(i)) & 1)
		var one, a_R_i ristretto.Scalar
		one.SetOne()
		a_R_i.Sub(a_L_i, &one)

		lPoly.As[i].Sub(a_L_i, z)
		lPoly.Bs[i] = sL[i]

		var tmp1, tmp2 ristretto.Scalar
		tmp1.Add(&a_R_i, z)
		tmp1.Mul(&expY, &tmp1)
		tmp2.Mul(&zz, &exp2)
		rPoly.As[i].Add(&tmp1, &tmp2)
		rPoly.Bs[i].Mul(&expY, sR[i])

		expY.Mul(&expY, y)
		exp2.Add(&exp2, &exp2)
	}

	tPoly := lPoly.InnerProduct(rPoly)

	var t1Blinding, t2Blinding ristretto.Scalar
	t1Blinding.Rand()
	t2Blinding.Rand()

	T1 := pg.Commit(tPoly.B, &t1Blinding)
	T2 := pg.Commit(tPoly.C, &t2Blinding)

	AppendPoint("T_1", T1, transcript)
	AppendPoint("T_2", T2, transcript)

	x := ChallengeScalar("x", transcript)

	tx := tPoly.Eval(x)

	var a0 ristretto.Scalar
	a0.Mul(&zz, vBlinding)
	tBlindingPoly := Poly2{
		A: &a0,
		B: &t1Blinding,
		C: &t2Blinding,
	}
	txBlinding := tBlindingPoly.Eval(x)

	var eBlinding ristretto.Scalar
	eBlinding.Mul(&sBlinding, x)
	eBlinding.Add(&aBlinding, &eBlinding)

	appendScalar("t_x", tx, transcript)
	appendScalar("t_x_blinding", txBlinding, transcript)
	appendScalar("e_blinding", &eBlinding, transcript)

	w := ChallengeScalar("w", transcript)
	var Q ristretto.Point
	Q.ScalarMult(pg.B, w)

	lVec := lPoly.Eval(x)
	rVec := rPoly.Eval(x)

	gFactors := make([]*ristretto.Scalar, n)
	hFactors := make([]*ristretto.Scalar, n)
	var inverseY ristretto.Scalar
	inverseY.Inverse(y)
	scalarExp := NewScalarExp(&inverseY)
	for i := 0; i < int(n); i++ {
		var one ristretto.Scalar
		gFactors[i] = one.SetOne()
		hFactors[i] = scalarExp.Next()
	}

	// The IPP folds its inputs in place; hand it clones of the generators.
	gVec := make([]*ristretto.Point, n)
	hVec := make([]*ristretto.Point, n)
	for i := 0; i < int(n); i++ {
		var z0, z1 ristretto.Point
		z0.SetZero()
		z1.SetZero()
		gVec[i] = z0.Add(&z0, Gs[i])
		hVec[i] = z1.Add(&z1, Hs[i])
	}

	ippProof := CreateInnerProductProof(transcript, &Q, gFactors, hFactors, gVec, hVec, lVec, rVec)

	// The bit and blinding vectors are secrets that must not outlive the
	// call; overwrite what this frame still owns.
	for i := 0; i < int(n); i++ {
		sL[i].SetZero()
		sR[i].SetZero()
		lPoly.As[i].SetZero()
		lPoly.Bs[i].SetZero()
		rPoly.As[i].SetZero()
		rPoly.Bs[i].SetZero()
	}
	aBlinding.SetZero()
	sBlinding.SetZero()
	t1Blinding.SetZero()
	t2Blinding.SetZero()

	proof := &RangeProof{
		A:          &A,
		S:          S,
		T1:         T1,
		T2:         T2,
		TX:         tx,
		TXBlinding: txBlinding,
		EBlinding:  &eBlinding,
		IPPProof:   ippProof,
	}
	return proof, V, nil
}

// Verify replays the prover's transcript interaction against the supplied
// value commitment V and checks the single combined multiscalar equation.
// A nil return means the proof is valid.
func (p *RangeProof) Verify(bg *BulletproofGens, pg *PedersenGens, transcript *merlin.Transcript, n int64, V *ristretto.Point) error {
	if err := checkBitsize(n, bg); err != nil {
		return err
	}
	if p.A == nil || p.S == nil || p.T1 == nil || p.T2 == nil ||
		p.TX == nil || p.TXBlinding == nil || p.EBlinding == nil || p.IPPProof == nil {
		return ErrInvalidProof
	}

	RangeproofDomainSep(n, transcript)

	AppendPoint("V", V, transcript)
	AppendPoint("A", p.A, transcript)
	AppendPoint("S", p.S, transcript)

	y := ChallengeScalar("y", transcript)
	z := ChallengeScalar("z", transcript)
	var zz ristretto.Scalar
	zz.Mul(z, z)
	var minusZ ristretto.Scalar
	minusZ.SetZero()
	minusZ.Sub(&minusZ, z)

	AppendPoint("T_1", p.T1, transcript)
	AppendPoint("T_2", p.T2, transcript)

	x := ChallengeScalar("x", transcript)

	appendScalar("t_x", p.TX, transcript)
	appendScalar("t_x_blinding", p.TXBlinding, transcript)
	appendScalar("e_blinding", p.EBlinding, transcript)

	w := ChallengeScalar("w", transcript)

	// Fresh statement-combination scalar, drawn only after every
	// transcript-derived challenge is fixed.
	var c ristretto.Scalar
	c.Rand()

	uSq, uInvSq, s, err := p.IPPProof.VerificationScalars(n, transcript)
	if err != nil {
		return ErrInvalidProof
	}

	a := p.IPPProof.A
	b := p.IPPProof.B

	// Exponents for G: -z - a*s_i
	gExp := make([]*ristretto.Scalar, n)
	for i := int64(0); i < n; i++ {
		var r ristretto.Scalar
		r.Mul(a, s[i])
		r.Sub(&minusZ, &r)
		gExp[i] = &r
	}

	// Exponents for H: z + y^-i * (zz*2^i - b/s_i), with 1/s_i read off as
	// the reverse of s.
	hExp := make([]*ristretto.Scalar, n)
	var inverseY ristretto.Scalar
	inverseY.Inverse(y)
	expYInv := NewScalarExp(&inverseY)
	var exp2 ristretto.Scalar
	exp2.SetOne()
	for i := int64(0); i < n; i++ {
		var r, t ristretto.Scalar
		r.Mul(&zz, &exp2)
		t.Mul(b, s[n-1-i])
		r.Sub(&r, &t)
		r.Mul(expYInv.Next(), &r)
		r.Add(z, &r)
		hExp[i] = &r

		exp2.Add(&exp2, &exp2)
	}

	// w*(t_x - a*b) + c*(delta(y,z) - t_x) on B
	var ab, bExp, tmp ristretto.Scalar
	ab.Mul(a, b)
	tmp.Sub(p.TX, &ab)
	bExp.Mul(w, &tmp)
	tmp.Sub(delta(n, y, z), p.TX)
	tmp.Mul(&c, &tmp)
	bExp.Add(&bExp, &tmp)

	// -e_blinding - c*t_x_blinding on B_blinding
	var bbExp, zero ristretto.Scalar
	bbExp.Mul(&c, p.TXBlinding)
	bbExp.Add(p.EBlinding, &bbExp)
	zero.SetZero()
	bbExp.Sub(&zero, &bbExp)

	var one, czz, cx, cxx ristretto.Scalar
	one.SetOne()
	czz.Mul(&c, &zz)
	cx.Mul(&c, x)
	cxx.Mul(&cx, x)

	scalars := []*ristretto.Scalar{&one, x, &czz, &cx, &cxx, &bExp, &bbExp}
	points := []*ristretto.Point{p.A, p.S, V, p.T1, p.T2, pg.B, pg.BBlinding}
	scalars = append(scalars, gExp...)
	points = append(points, bg.G(n)...)
	scalars = append(scalars, hExp...)
	points = append(points, bg.H(n)...)
	scalars = append(scalars, uSq...)
	points = append(points, p.IPPProof.LVec...)
	scalars = append(scalars, uInvSq...)
	points = append(points, p.IPPProof.RVec...)

	megaCheck := vartimeMultiscalarMul(scalars, points)

	var identity ristretto.Point
	identity.SetZero()
	if !megaCheck.Equals(&identity) {
		return ErrInvalidProof
	}
	return nil
}

// delta computes (z - z^2)*<1, y^n> - z^3*<1, 2^n>.
func delta(n int64, y, z *ristretto.Scalar) *ristretto.Scalar {
	sumY := sumOfPowers(y, n)
	sum2 := sumOfPowers(uint64ToScalar(2), n)

	var zz, a, b ristretto.Scalar
	zz.Mul(z, z)
	a.Sub(z, &zz)
	a.Mul(&a, sumY)
	b.Mul(&zz, z)
	b.Mul(&b, sum2)
	return a.Sub(&a, &b)
}

// ToBytes serializes the proof as A, S, T_1, T_2, t_x, t_x_blinding,
// e_blinding, then the inner-product rounds and final scalars, each element
// a fixed 32-byte encoding.
func (p *RangeProof) ToBytes() []byte {
	var buf []byte
	buf = append(buf, p.A.Bytes()...)
	buf = append(buf, p.S.Bytes()...)
	buf = append(buf, p.T1.Bytes()...)
	buf = append(buf, p.T2.Bytes()...)
	buf = append(buf, p.TX.Bytes()...)
	buf = append(buf, p.TXBlinding.Bytes()...)
	buf = append(buf, p.EBlinding.Bytes()...)
	buf = append(buf, p.IPPProof.ToBytes()...)

	return buf
}

// RangeProofFromBytes decodes a proof for bit size n, rejecting any input
// whose length differs from 32*(9+2*log2(n)).
func RangeProofFromBytes(data []byte, n int64) (*RangeProof, error) {
	if n < 1 || n > 64 || bits.OnesCount64(uint64(n)) != 1 {
		return nil, fmt.Errorf("RangeProofFromBytes InvalidBitsize %d", n)
	}
	k := bits.TrailingZeros64(uint64(n))
	if len(data) != 32*(9+2*k) {
		return nil, fmt.Errorf("RangeProofFromBytes invalid length %d for n %d", len(data), n)
	}

	points := make([]*ristretto.Point, 4)
	for i := 0; i < 4; i++ {
		var buf [32]byte
		copy(buf[:], data[i*32:])
		var pt ristretto.Point
		if !pt.SetBytes(&buf) {
			return nil, fmt.Errorf("RangeProofFromBytes invalid point %d", i)
		}
		points[i] = &pt
	}

	scalars := make([]*ristretto.Scalar, 3)
	for i := 0; i < 3; i++ {
		var buf [32]byte
		copy(buf[:], data[(4+i)*32:])
		var sc ristretto.Scalar
		scalars[i] = sc.SetBytes(&buf)
	}

	ippProof, err := InnerProductProofFromBytes(data[7*32:])
	if err != nil {
		return nil, err
	}
	if len(ippProof.LVec) != k {
		return nil, fmt.Errorf("RangeProofFromBytes wrong number of rounds %d for n %d", len(ippProof.LVec), n)
	}

	return &RangeProof{
		A:          points[0],
		S:          points[1],
		T1:         points[2],
		T2:         points[3],
		TX:         scalars[0],
		TXBlinding: scalars[1],
		EBlinding:  scalars[2],
		IPPProof:   ippProof,
	}, nil
}

// GenerateRangeProof proves under a fresh transcript with the default domain
// tag and returns the wire bytes alongside the value commitment.
func GenerateRangeProof(bg *BulletproofGens, pg *PedersenGens, n int64, value uint64, vBlinding *ristretto.Scalar) ([]byte, *ristretto.Point, error) {
	transcript := InitialTranscript(BULLETPROOF_DOMAIN_TAG)
	proof, V, err := ProveRange(bg, pg, transcript, n, value, vBlinding)
	if err != nil {
		return nil, nil, err
	}
	return proof.ToBytes(), V, nil
}

// VerifyRangeProofBytes decodes and verifies wire bytes produced by
// GenerateRangeProof.
func VerifyRangeProofBytes(bg *BulletproofGens, pg *PedersenGens, n int64, V *ristretto.Point, data []byte) error {
	proof, err := RangeProofFromBytes(data, n)
	if err != nil {
		return ErrInvalidProof
	}
	transcript := InitialTranscript(BULLETPROOF_DOMAIN_TAG)
	return proof.Verify(bg, pg, transcript, n, V)
}
