package interfaces

import (
	"context"

	domaintypes "axolotl/internal/domain/types"
	"axolotl/internal/protocol/session"
	"axolotl/internal/protocol/wire"
)

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates pre-keys and assembles the bundle to publish.
type PreKeyService interface {
	GenerateSignedPreKey() (domaintypes.SignedPreKeyRecord, error)
	GeneratePreKeys(count int) ([]domaintypes.PreKeyRecord, error)
	PublishedBundle(
		username domaintypes.Username,
		deviceID uint32,
	) (domaintypes.PublishedBundle, error)
}

// SessionService builds sessions from bundles and initial messages.
type SessionService interface {
	ProcessBundle(addr domaintypes.Address, bundle domaintypes.PreKeyBundle) error
	ProcessPreKeyMessage(
		addr domaintypes.Address,
		rec *session.Record,
		msg *wire.PreKeySignalMessage,
	) (*domaintypes.PreKeyID, error)
	InitiateSession(ctx context.Context, addr domaintypes.Address) error
}

// MessageService encrypts, sends, fetches and decrypts messages.
type MessageService interface {
	Encrypt(addr domaintypes.Address, plaintext []byte) (wire.CiphertextMessage, error)
	Decrypt(addr domaintypes.Address, msg *wire.SignalMessage) ([]byte, error)
	DecryptPreKey(addr domaintypes.Address, msg *wire.PreKeySignalMessage) ([]byte, error)
	RemoteRegistrationID(addr domaintypes.Address) (domaintypes.RegistrationID, error)

	SendMessage(
		ctx context.Context,
		from domaintypes.Address,
		to domaintypes.Address,
		plaintext []byte,
	) error
	ReceiveMessages(
		ctx context.Context,
		me domaintypes.Address,
		limit int,
	) ([]domaintypes.DecryptedMessage, error)
}
