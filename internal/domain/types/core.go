package types

import "fmt"

// Username represents a relay-registered identity.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// PreKeyID identifies a one-time pre-key.
type PreKeyID uint32

// SignedPreKeyID identifies a signed pre-key.
type SignedPreKeyID uint32

// RegistrationID is the random per-install id advertised in bundles and
// initial messages.
type RegistrationID uint32

// Address names one device of a peer. Sessions are keyed by Address.
type Address struct {
	Name     Username `json:"name" validate:"required,max=64"`
	DeviceID uint32   `json:"device_id"`
}

// String returns "name.device".
func (a Address) String() string { return fmt.Sprintf("%s.%d", a.Name, a.DeviceID) }
