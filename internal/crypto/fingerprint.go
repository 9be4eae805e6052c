package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"axolotl/internal/domain/types"
)

// fingerprintLen is the number of digest bytes kept in a Fingerprint.
const fingerprintLen = 10

// Fingerprint names an identity key in logs, prompts and storage partitions.
// It is the hex of the first ten bytes of SHA-256 over the serialized key,
// so the type byte is covered as well.
func Fingerprint(pub types.X25519Public) string {
	sum := sha256.Sum256(pub.Serialize())
	return hex.EncodeToString(sum[:fingerprintLen])
}
