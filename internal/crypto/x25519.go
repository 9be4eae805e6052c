package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"axolotl/internal/domain/types"
)

// ErrInvalidKey reports malformed key bytes or a point that yields a
// degenerate agreement.
var ErrInvalidKey = errors.New("invalid key")

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv types.X25519Private, pub types.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// GenerateKeyPair is GenerateX25519 packed into a types.KeyPair.
func GenerateKeyPair() (types.KeyPair, error) {
	priv, pub, err := GenerateX25519()
	if err != nil {
		return types.KeyPair{}, err
	}
	return types.KeyPair{Private: priv, Public: pub}, nil
}

// DH computes X25519 Diffie–Hellman. Low-order peer keys surface as
// ErrInvalidKey.
func DH(priv types.X25519Private, pub types.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	copy(out[:], secret)
	return out, nil
}

// DecodePoint parses the 33-byte serialized form of a public key.
func DecodePoint(b []byte) (types.X25519Public, error) {
	var pub types.X25519Public
	if len(b) != 33 {
		return pub, fmt.Errorf("%w: want 33 bytes, got %d", ErrInvalidKey, len(b))
	}
	if b[0] != types.DJBType {
		return pub, fmt.Errorf("%w: unknown key type %#x", ErrInvalidKey, b[0])
	}
	copy(pub[:], b[1:])
	return pub, nil
}

// ComparePublic orders public keys byte-wise.
func ComparePublic(a, b types.X25519Public) int {
	return bytes.Compare(a[:], b[:])
}

func clamp(k *types.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
