package types

// Identity holds your long-term X25519 and Ed25519 keys.
//
// The X25519 half is the identity key carried in initial messages and mixed
// into the key agreement. The Ed25519 half signs signed pre-keys.
type Identity struct {
	XPub           X25519Public   `json:"xpub"`
	XPriv          X25519Private  `json:"xpriv"`
	EdPub          Ed25519Public  `json:"edpub"`
	EdPriv         Ed25519Private `json:"edpriv"`
	RegistrationID RegistrationID `json:"registration_id"`
}

// KeyPair returns the X25519 identity key pair.
func (id Identity) KeyPair() KeyPair {
	return KeyPair{Private: id.XPriv, Public: id.XPub}
}
