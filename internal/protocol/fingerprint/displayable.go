package fingerprint

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strings"

	"axolotl/internal/domain/types"
)

const (
	// Version is written into scannable payloads and mixed into the hash.
	Version = 0
	// DefaultIterations is the hash iteration count for safety numbers.
	DefaultIterations = 5200
)

// Fingerprint pairs both verification forms for one conversation.
type Fingerprint struct {
	Displayable string
	Scannable   *Scannable
}

// Generator derives fingerprints. Iterations trades cost for resistance to
// preimage search on the 30-digit halves.
type Generator struct {
	Iterations int
}

// NewGenerator returns a Generator; iterations <= 0 selects the default.
func NewGenerator(iterations int) Generator {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return Generator{Iterations: iterations}
}

// Create builds the fingerprint for a conversation between local and
// remote. Both sides compute the same Displayable string.
func (g Generator) Create(localID string, localKey types.X25519Public, remoteID string, remoteKey types.X25519Public) Fingerprint {
	return Fingerprint{
		Displayable: Displayable(g.digits(localID, localKey), g.digits(remoteID, remoteKey)),
		Scannable:   NewScannable(Version, localID, localKey, remoteID, remoteKey),
	}
}

// Displayable orders two 30-digit halves so both parties print the same
// 60-digit number.
func Displayable(local, remote string) string {
	if local <= remote {
		return local + remote
	}
	return remote + local
}

// Format groups a safety number in blocks of five for reading aloud.
func Format(number string) string {
	var b strings.Builder
	for i := 0; i < len(number); i += 5 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := min(i+5, len(number))
		b.WriteString(number[i:end])
	}
	return b.String()
}

func (g Generator) digits(id string, key types.X25519Public) string {
	pub := key.Serialize()

	h := sha512.New()
	var v [2]byte
	binary.BigEndian.PutUint16(v[:], Version)
	h.Write(v[:])
	h.Write(pub)
	h.Write([]byte(id))
	hash := h.Sum(nil)

	for i := 0; i < g.Iterations; i++ {
		h.Reset()
		h.Write(hash)
		h.Write(pub)
		hash = h.Sum(hash[:0])
	}

	var b strings.Builder
	for i := 0; i < 6; i++ {
		chunk := hash[i*5 : i*5+5]
		n := uint64(chunk[0])<<32 | uint64(chunk[1])<<24 | uint64(chunk[2])<<16 | uint64(chunk[3])<<8 | uint64(chunk[4])
		fmt.Fprintf(&b, "%05d", n%100000)
	}
	return b.String()
}
