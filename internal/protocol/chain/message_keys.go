package chain

import "axolotl/internal/util/memzero"

// MessageKeys encrypt and authenticate exactly one message.
type MessageKeys struct {
	CipherKey [32]byte
	MacKey    [32]byte
	IV        [16]byte
	Index     uint32
}

// Wipe zeroes the keys.
func (m *MessageKeys) Wipe() {
	memzero.All(m.CipherKey[:], m.MacKey[:], m.IV[:])
}
