package interfaces

import (
	domaintypes "axolotl/internal/domain/types"
	"axolotl/internal/protocol/session"
)

// KeyringStore keeps the local identity encrypted under a passphrase.
type KeyringStore interface {
	SaveLocalIdentity(passphrase string, id domaintypes.Identity) error
	LoadLocalIdentity(passphrase string) (domaintypes.Identity, error)
}

// IdentityStore holds our identity and the identity keys we have seen for
// peers. Trust is first use: an unseen name is trusted, a changed key is not.
type IdentityStore interface {
	IdentityKeyPair() (domaintypes.Identity, error)
	LocalRegistrationID() (domaintypes.RegistrationID, error)
	SaveIdentity(name domaintypes.Username, key domaintypes.X25519Public) error
	IsTrustedIdentity(name domaintypes.Username, key domaintypes.X25519Public) (bool, error)
	RemoteIdentity(name domaintypes.Username) (domaintypes.X25519Public, bool, error)
}

// PreKeyStore holds one-time pre-keys by id.
type PreKeyStore interface {
	LoadPreKey(id domaintypes.PreKeyID) (domaintypes.PreKeyRecord, bool, error)
	StorePreKey(rec domaintypes.PreKeyRecord) error
	ContainsPreKey(id domaintypes.PreKeyID) (bool, error)
	RemovePreKey(id domaintypes.PreKeyID) error
}

// SignedPreKeyStore holds signed pre-keys by id.
type SignedPreKeyStore interface {
	LoadSignedPreKey(id domaintypes.SignedPreKeyID) (domaintypes.SignedPreKeyRecord, bool, error)
	LoadSignedPreKeys() ([]domaintypes.SignedPreKeyRecord, error)
	StoreSignedPreKey(rec domaintypes.SignedPreKeyRecord) error
	ContainsSignedPreKey(id domaintypes.SignedPreKeyID) (bool, error)
	RemoveSignedPreKey(id domaintypes.SignedPreKeyID) error
}

// SessionStore persists one session record per peer device.
type SessionStore interface {
	LoadSession(addr domaintypes.Address) (*session.Record, bool, error)
	StoreSession(addr domaintypes.Address, rec *session.Record) error
	ContainsSession(addr domaintypes.Address) (bool, error)
	DeleteSession(addr domaintypes.Address) error
	DeleteAllSessions(name domaintypes.Username) error
	DeviceSessions(name domaintypes.Username) ([]uint32, error)
}

// ProtocolStore is everything session setup and the ratchet need.
type ProtocolStore interface {
	IdentityStore
	PreKeyStore
	SignedPreKeyStore
	SessionStore
}
