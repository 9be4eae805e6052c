package kdf

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Version is the only protocol version this package derives keys for.
const Version = 3

// Info strings mixed into each derivation.
var (
	InfoText        = []byte("WhisperText")
	InfoRatchet     = []byte("WhisperRatchet")
	InfoMessageKeys = []byte("WhisperMessageKeys")
)

var ErrUnsupportedVersion = errors.New("unsupported kdf version")

var zeroSalt [sha256.Size]byte

// HKDF derives secrets for a single protocol version.
type HKDF struct {
	version int
}

// New returns the HKDF for version, which must be 3.
func New(version int) (HKDF, error) {
	if version != Version {
		return HKDF{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return HKDF{version: version}, nil
}

// V3 is the HKDF used everywhere a session is version 3.
func V3() HKDF { return HKDF{version: Version} }

// Version reports the protocol version.
func (h HKDF) Version() int { return h.version }

// DeriveSecrets expands ikm with a zero salt.
func (h HKDF) DeriveSecrets(ikm, info []byte, n int) []byte {
	return h.DeriveSecretsWithSalt(ikm, nil, info, n)
}

// DeriveSecretsWithSalt runs HKDF-SHA256 over ikm and returns n bytes. A nil
// salt is 32 zero bytes.
func (h HKDF) DeriveSecretsWithSalt(ikm, salt, info []byte, n int) []byte {
	if salt == nil {
		salt = zeroSalt[:]
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), out); err != nil {
		// Only possible when n exceeds 255*32.
		panic(fmt.Sprintf("kdf: hkdf read: %v", err))
	}
	return out
}
