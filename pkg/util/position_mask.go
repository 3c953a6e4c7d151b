package util

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// PositionMask derives a deterministic, platform-independent sequence of n
// eligibility bits from a secret key string. The key is hashed to an int64
// seed for math/rand: a pure-software PRNG whose output depends only on
// the seed, never on hardware or OS entropy, so the same (key, n) always
// produces the same sequence on any machine.
func PositionMask(key string, n int) []byte {
	sum := sha256.Sum256([]byte(key))
	seed := int64(binary.LittleEndian.Uint64(sum[:8]))

	src := rand.New(rand.NewSource(seed))
	mask := make([]byte, n)
	for i := range mask {
		mask[i] = byte(src.Intn(2))
	}
	return mask
}
