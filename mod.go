package rangeproof

import (
	"encoding/binary"

	"github.com/bwesterb/go-ristretto"
	"github.com/dchest/blake2b"
)

const HASH_TO_POINT_DOMAIN_TAG = "rangeproof_hash_to_point"

func hashToPoint(public *ristretto.Point) *ristretto.Point {
	hash := blake2b.New512()
	hash.Write([]byte(HASH_TO_POINT_DOMAIN_TAG))
	hash.Write(public.Bytes())
	var key [64]byte
	copy(key[:], hash.Sum(nil))

	return pointFromUniformBytes(key[:])
}

func uint64ToScalar(i uint64) *ristretto.Scalar {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:], i)
	var s ristretto.Scalar
	return s.SetBytes(&buf)
}

func multiscalarMul(scalars []*ristretto.Scalar, points []*ristretto.Point) *ristretto.Point {
	var p ristretto.Point
	p.SetZero()
	for i := range scalars {
		var t ristretto.Point
		t.ScalarMult(points[i], scalars[i])
		p.Add(&p, &t)
	}
	return &p
}

func vartimeMultiscalarMul(scalars []*ristretto.Scalar, points []*ristretto.Point) *ristretto.Point {
	var r ristretto.Point
	r.SetZero()
	for i := range scalars {
		var rr ristretto.Point
		rr.ScalarMult(points[i], scalars[i])
		r.Add(&r, &rr)
	}
	return &r
}
