package rangeproof

import (
	"encoding/binary"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

// BULLETPROOF_DOMAIN_TAG separates rangeproof transcripts from any other
// merlin transcript an application may run.
const BULLETPROOF_DOMAIN_TAG = "rangeproof_transcript"

func InitialTranscript(label string) *merlin.Transcript {
	return merlin.NewTranscript(label)
}

func RangeproofDomainSep(n int64, t *merlin.Transcript) *merlin.Transcript {
	appendBytes([]byte("dom-sep"), []byte("rangeproof v1"), t)

	appendInt64("n", uint64(n), t)
	return t
}

func InnerproductDomainSep(n uint64, t *merlin.Transcript) {
	appendBytes([]byte("dom-sep"), []byte("ipp v1"), t)

	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, n)
	appendBytes([]byte("n"), bytes, t)
}

func appendInt64(label string, i uint64, t *merlin.Transcript) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, i)
	appendBytes([]byte(label), buf, t)
}

func appendBytes(field, data []byte, t *merlin.Transcript) {
	t.AppendMessage(field, data)
}

func appendScalar(label string, s *ristretto.Scalar, t *merlin.Transcript) {
	appendBytes([]byte(label), s.Bytes(), t)
}

func AppendScalar(label string, s *ristretto.Scalar, t *merlin.Transcript) {
	appendScalar(label, s, t)
}

func AppendPoint(label string, p *ristretto.Point, t *merlin.Transcript) {
	appendBytes([]byte(label), p.Bytes(), t)
}

// ChallengeScalar extracts 64 bytes from the transcript and reduces them to a
// scalar. Prover and verifier derive every challenge through this function, so
// an identical append sequence yields identical challenges.
func ChallengeScalar(label string, t *merlin.Transcript) *ristretto.Scalar {
	data := t.ExtractBytes([]byte(label), 64)
	var dataBytes [64]byte
	copy(dataBytes[:], data[:])

	var s ristretto.Scalar
	return s.SetReduced(&dataBytes)
}
