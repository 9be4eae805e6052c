package chain

import (
	"crypto/hmac"
	"crypto/sha256"

	"axolotl/internal/protocol/kdf"
	"axolotl/internal/util/memzero"
)

var (
	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

// ChainKey is one step of a sending or receiving chain.
type ChainKey struct {
	kdf   kdf.HKDF
	key   [32]byte
	index uint32
}

// NewChainKey copies key into a ChainKey at index.
func NewChainKey(h kdf.HKDF, key []byte, index uint32) ChainKey {
	c := ChainKey{kdf: h, index: index}
	copy(c.key[:], key)
	return c
}

// Key returns a copy of the key material.
func (c ChainKey) Key() []byte {
	out := make([]byte, len(c.key))
	copy(out, c.key[:])
	return out
}

// Index is the position of this key in its chain.
func (c ChainKey) Index() uint32 { return c.index }

// Next returns the following chain key.
func (c ChainKey) Next() ChainKey {
	next := c.base(chainKeySeed)
	out := NewChainKey(c.kdf, next, c.index+1)
	memzero.Zero(next)
	return out
}

// MessageKeys derives the message keys for this index.
func (c ChainKey) MessageKeys() MessageKeys {
	seed := c.base(messageKeySeed)
	derived := c.kdf.DeriveSecrets(seed, kdf.InfoMessageKeys, 80)
	memzero.Zero(seed)

	var mk MessageKeys
	copy(mk.CipherKey[:], derived[:32])
	copy(mk.MacKey[:], derived[32:64])
	copy(mk.IV[:], derived[64:80])
	mk.Index = c.index
	memzero.Zero(derived)
	return mk
}

// Wipe zeroes the key material.
func (c *ChainKey) Wipe() { memzero.Zero(c.key[:]) }

func (c ChainKey) base(seed []byte) []byte {
	m := hmac.New(sha256.New, c.key[:])
	m.Write(seed)
	return m.Sum(nil)
}
