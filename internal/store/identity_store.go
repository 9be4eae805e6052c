package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"axolotl/internal/domain"
)

const (
	idFilename      = "identity.json.enc"
	trustedFilename = "trusted_identities.json"
)

var (
	// ErrLocked is returned by IdentityKeyPair before Unlock.
	ErrLocked = errors.New("identity store is locked")
	// ErrNoIdentity is returned when no local identity has been created.
	ErrNoIdentity = errors.New("no local identity")
)

// IdentityFileStore persists the local identity, sealed under a passphrase,
// and the identity keys seen for each peer.
type IdentityFileStore struct {
	dir    string
	params ScryptParams

	mu       sync.Mutex
	unlocked *domain.Identity
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, params: DefaultScryptParams()}
}

// WithScryptParams overrides the passphrase stretching cost for new blobs.
func (s *IdentityFileStore) WithScryptParams(p ScryptParams) *IdentityFileStore {
	s.params = p
	return s
}

// SaveLocalIdentity seals id under passphrase and leaves the store unlocked.
func (s *IdentityFileStore) SaveLocalIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	ct, err := seal(passphrase, raw, s.params)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(s.dir, idFilename), ct, 0o600); err != nil {
		return err
	}
	s.unlocked = &id
	return nil
}

// LoadLocalIdentity reads and decrypts the identity.
func (s *IdentityFileStore) LoadLocalIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(passphrase)
}

// Unlock decrypts the identity and keeps it in memory for IdentityKeyPair.
func (s *IdentityFileStore) Unlock(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.loadLocked(passphrase)
	if err != nil {
		return err
	}
	s.unlocked = &id
	return nil
}

func (s *IdentityFileStore) loadLocked(passphrase string) (domain.Identity, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, idFilename))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, ErrNoIdentity
	}
	if err != nil {
		return domain.Identity{}, err
	}
	pt, err := open(passphrase, b)
	if err != nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return id, nil
}

// IdentityKeyPair returns the unlocked identity.
func (s *IdentityFileStore) IdentityKeyPair() (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unlocked == nil {
		return domain.Identity{}, ErrLocked
	}
	return *s.unlocked, nil
}

// LocalRegistrationID returns the registration id of the unlocked identity.
func (s *IdentityFileStore) LocalRegistrationID() (domain.RegistrationID, error) {
	id, err := s.IdentityKeyPair()
	if err != nil {
		return 0, err
	}
	return id.RegistrationID, nil
}

// SaveIdentity records key as the identity of name.
func (s *IdentityFileStore) SaveIdentity(name domain.Username, key domain.X25519Public) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, trustedFilename)
	m := map[domain.Username]domain.X25519Public{}
	if err := readJSON(path, &m); err != nil {
		return err
	}
	m[name] = key
	return writeJSON(path, m, 0o600)
}

// IsTrustedIdentity trusts unseen names and keys equal to the recorded one.
func (s *IdentityFileStore) IsTrustedIdentity(name domain.Username, key domain.X25519Public) (bool, error) {
	known, ok, err := s.RemoteIdentity(name)
	if err != nil {
		return false, err
	}
	return !ok || known == key, nil
}

// RemoteIdentity returns the recorded identity key of name.
func (s *IdentityFileStore) RemoteIdentity(name domain.Username) (domain.X25519Public, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := map[domain.Username]domain.X25519Public{}
	if err := readJSON(filepath.Join(s.dir, trustedFilename), &m); err != nil {
		return domain.X25519Public{}, false, err
	}
	k, ok := m[name]
	return k, ok, nil
}

// Compile-time assertions that IdentityFileStore implements the identity contracts.
var (
	_ domain.KeyringStore  = (*IdentityFileStore)(nil)
	_ domain.IdentityStore = (*IdentityFileStore)(nil)
)
