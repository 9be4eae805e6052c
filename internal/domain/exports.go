package domain

import (
	interfaces "axolotl/internal/domain/interfaces"
	types "axolotl/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username           = types.Username
	Fingerprint        = types.Fingerprint
	Address            = types.Address
	PreKeyID           = types.PreKeyID
	SignedPreKeyID     = types.SignedPreKeyID
	RegistrationID     = types.RegistrationID
	Identity           = types.Identity
	KeyPair            = types.KeyPair
	PreKeyRecord       = types.PreKeyRecord
	SignedPreKeyRecord = types.SignedPreKeyRecord
	PreKeyBundle       = types.PreKeyBundle
	PublishedBundle    = types.PublishedBundle
	OneTimePreKey      = types.OneTimePreKey
	MessageType        = types.MessageType
	Envelope           = types.Envelope
	DecryptedMessage   = types.DecryptedMessage
	AccountProfile     = types.AccountProfile
	X25519Public       = types.X25519Public
	X25519Private      = types.X25519Private
	Ed25519Public      = types.Ed25519Public
	Ed25519Private     = types.Ed25519Private
)

// Message type tags carried by envelopes.
const (
	WhisperMessageType = types.WhisperMessageType
	PreKeyMessageType  = types.PreKeyMessageType
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService   = interfaces.IdentityService
	PreKeyService     = interfaces.PreKeyService
	SessionService    = interfaces.SessionService
	MessageService    = interfaces.MessageService
	RelayClient       = interfaces.RelayClient
	KeyringStore      = interfaces.KeyringStore
	IdentityStore     = interfaces.IdentityStore
	PreKeyStore       = interfaces.PreKeyStore
	SignedPreKeyStore = interfaces.SignedPreKeyStore
	SessionStore      = interfaces.SessionStore
	ProtocolStore     = interfaces.ProtocolStore
	AccountStore      = interfaces.AccountStore
)
