package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// SeedBytes is the entropy of a pool seed before hex encoding.
const SeedBytes = 32

// GenerateSeed creates a cryptographically secure random seed (hex encoded).
func GenerateSeed() (string, error) {
	b := make([]byte, SeedBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CommitmentHash creates the SHA256 commitment of a pool seed. It is published
// at pool creation while the seed stays secret, so the operator cannot swap
// the seed after draws have started without detection.
func CommitmentHash(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

// DrawHash computes the per-draw commitment H(seed, nonce). After the seed is
// revealed, anyone can recompute it for any nonce and compare against the
// published value.
func DrawHash(seed string, nonce int64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", seed, nonce)))
	return hex.EncodeToString(h[:])
}

// DeriveRandom deterministically derives a value in [0, 1) from a seed and a
// per-draw nonce using HMAC-SHA256. The same (seed, nonce) pair always yields
// the same value; this is the number the draw engine uses to pick a ticket.
func DeriveRandom(seed string, nonce int64) float64 {
	mac := hmac.New(sha256.New, []byte(seed))
	fmt.Fprintf(mac, "%d", nonce)
	sum := mac.Sum(nil)

	// Interpret the first 8 bytes as a uint64 and scale into [0, 1).
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / float64(1<<63) / 2
}

// VerifyResult is the outcome of re-deriving a draw from its inputs.
type VerifyResult struct {
	RandomValue float64
	HashMatch   bool
	TxidHash    string
}

// Verify recomputes the draw hash and random value for (seed, nonce) and
// compares the hash against expectedHash. A mismatch is a meaningful result,
// not an error: it is the evidence the commitment scheme exists to produce.
func Verify(seed string, nonce int64, expectedHash string) VerifyResult {
	computed := DrawHash(seed, nonce)
	return VerifyResult{
		RandomValue: DeriveRandom(seed, nonce),
		HashMatch:   computed == expectedHash,
		TxidHash:    computed,
	}
}
