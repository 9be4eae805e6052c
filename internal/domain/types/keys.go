package types

// DJBType prefixes every serialized Curve25519 public key on the wire.
const DJBType byte = 0x05

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// Serialize returns the 33-byte wire form: DJBType followed by the key.
func (p X25519Public) Serialize() []byte {
	out := make([]byte, 0, 33)
	out = append(out, DJBType)
	return append(out, p[:]...)
}

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key.
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// KeyPair is an X25519 key pair used for base, ratchet and pre-keys.
type KeyPair struct {
	Private X25519Private `json:"priv"`
	Public  X25519Public  `json:"pub"`
}
