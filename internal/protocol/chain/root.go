package chain

import (
	"fmt"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/kdf"
	"axolotl/internal/util/memzero"
)

// RootKey is the root of the ratchet. Every DH ratchet step replaces it.
type RootKey struct {
	kdf kdf.HKDF
	key [32]byte
}

// NewRootKey copies key into a RootKey.
func NewRootKey(h kdf.HKDF, key []byte) RootKey {
	r := RootKey{kdf: h}
	copy(r.key[:], key)
	return r
}

// Bytes returns a copy of the key material.
func (r RootKey) Bytes() []byte {
	out := make([]byte, len(r.key))
	copy(out, r.key[:])
	return out
}

// CreateChain runs one DH ratchet step against theirRatchet and returns the
// next root key plus the chain key it seeds.
func (r RootKey) CreateChain(theirRatchet types.X25519Public, ours types.KeyPair) (RootKey, ChainKey, error) {
	shared, err := crypto.DH(ours.Private, theirRatchet)
	if err != nil {
		return RootKey{}, ChainKey{}, fmt.Errorf("ratchet step: %w", err)
	}
	derived := r.kdf.DeriveSecretsWithSalt(shared[:], r.key[:], kdf.InfoRatchet, 64)
	memzero.Zero(shared[:])

	next := NewRootKey(r.kdf, derived[:32])
	ck := NewChainKey(r.kdf, derived[32:], 0)
	memzero.Zero(derived)
	return next, ck, nil
}

// Wipe zeroes the key material.
func (r *RootKey) Wipe() { memzero.Zero(r.key[:]) }

// DeriveInitial splits a key agreement secret into the first root key and
// chain key of a session.
func DeriveInitial(h kdf.HKDF, secret []byte) (RootKey, ChainKey) {
	derived := h.DeriveSecrets(secret, kdf.InfoText, 64)
	defer memzero.Zero(derived)
	return NewRootKey(h, derived[:32]), NewChainKey(h, derived[32:], 0)
}
