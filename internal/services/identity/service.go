package identity

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"unicode"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12

	// maxRegistrationID keeps registration ids in the 14-bit range peers expect.
	maxRegistrationID = 16380
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages identity key creation and access using a backing keyring.
//
// The identity contains:
//   - X25519 key pair for Diffie-Hellman (key agreement and ratchet).
//   - Ed25519 key pair for signing (for example, signing the signed pre-key).
//   - A random registration id advertised in bundles and initial messages.
type Service struct {
	keyring domain.KeyringStore
}

// New returns an identity service backed by the given keyring.
func New(k domain.KeyringStore) *Service { return &Service{keyring: k} }

// GenerateIdentity creates a new identity, saves it encrypted with the passphrase,
// and returns the identity plus a short fingerprint of the X25519 public key.
func (s *Service) GenerateIdentity(
	passphrase string,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	regID, err := GenerateRegistrationID()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{
		XPub:           xPub,
		XPriv:          xPriv,
		EdPub:          edPub,
		EdPriv:         edPriv,
		RegistrationID: regID,
	}
	if err := s.keyring.SaveLocalIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, fingerprintOf(id), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.keyring.LoadLocalIdentity(passphrase)
}

// FingerprintIdentity returns a short fingerprint of the local X25519 public key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.keyring.LoadLocalIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return fingerprintOf(id), nil
}

// GenerateRegistrationID returns a random id in [1, 16380].
func GenerateRegistrationID() (domain.RegistrationID, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return domain.RegistrationID(binary.BigEndian.Uint32(b[:])%maxRegistrationID + 1), nil
}

func fingerprintOf(id domain.Identity) domain.Fingerprint {
	return domain.Fingerprint(crypto.Fingerprint(id.XPub))
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
