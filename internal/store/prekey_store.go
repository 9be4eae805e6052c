package store

import (
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"axolotl/internal/domain"
)

const (
	preKeysFile       = "prekeys.json"
	signedPreKeysFile = "signed_prekeys.json"
)

// PreKeyFileStore persists one-time and signed pre-key pairs to disk.
type PreKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPreKeyFileStore returns a PreKeyFileStore rooted at dir.
func NewPreKeyFileStore(dir string) *PreKeyFileStore {
	return &PreKeyFileStore{dir: dir}
}

// JSON object keys must be strings, so ids are stored in decimal.
func idKey[T ~uint32](id T) string { return strconv.FormatUint(uint64(id), 10) }

func (s *PreKeyFileStore) preKeys() (map[string]domain.PreKeyRecord, error) {
	m := map[string]domain.PreKeyRecord{}
	err := readJSON(filepath.Join(s.dir, preKeysFile), &m)
	return m, err
}

func (s *PreKeyFileStore) signedPreKeys() (map[string]domain.SignedPreKeyRecord, error) {
	m := map[string]domain.SignedPreKeyRecord{}
	err := readJSON(filepath.Join(s.dir, signedPreKeysFile), &m)
	return m, err
}

// LoadPreKey retrieves a one-time pre-key by id.
func (s *PreKeyFileStore) LoadPreKey(id domain.PreKeyID) (domain.PreKeyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.preKeys()
	if err != nil {
		return domain.PreKeyRecord{}, false, err
	}
	rec, ok := m[idKey(id)]
	return rec, ok, nil
}

// StorePreKey adds or replaces a one-time pre-key.
func (s *PreKeyFileStore) StorePreKey(rec domain.PreKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.preKeys()
	if err != nil {
		return err
	}
	m[idKey(rec.ID)] = rec
	return writeJSON(filepath.Join(s.dir, preKeysFile), m, 0o600)
}

// ContainsPreKey reports whether id is stored.
func (s *PreKeyFileStore) ContainsPreKey(id domain.PreKeyID) (bool, error) {
	_, ok, err := s.LoadPreKey(id)
	return ok, err
}

// RemovePreKey deletes id; removing a missing id is not an error.
func (s *PreKeyFileStore) RemovePreKey(id domain.PreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.preKeys()
	if err != nil {
		return err
	}
	if _, ok := m[idKey(id)]; !ok {
		return nil
	}
	delete(m, idKey(id))
	return writeJSON(filepath.Join(s.dir, preKeysFile), m, 0o600)
}

// LoadSignedPreKey retrieves a signed pre-key by id.
func (s *PreKeyFileStore) LoadSignedPreKey(id domain.SignedPreKeyID) (domain.SignedPreKeyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.signedPreKeys()
	if err != nil {
		return domain.SignedPreKeyRecord{}, false, err
	}
	rec, ok := m[idKey(id)]
	return rec, ok, nil
}

// LoadSignedPreKeys returns every signed pre-key, oldest first.
func (s *PreKeyFileStore) LoadSignedPreKeys() ([]domain.SignedPreKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.signedPreKeys()
	if err != nil {
		return nil, err
	}
	out := make([]domain.SignedPreKeyRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	sortSignedPreKeys(out)
	return out, nil
}

// StoreSignedPreKey adds or replaces a signed pre-key.
func (s *PreKeyFileStore) StoreSignedPreKey(rec domain.SignedPreKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.signedPreKeys()
	if err != nil {
		return err
	}
	m[idKey(rec.ID)] = rec
	return writeJSON(filepath.Join(s.dir, signedPreKeysFile), m, 0o600)
}

// ContainsSignedPreKey reports whether id is stored.
func (s *PreKeyFileStore) ContainsSignedPreKey(id domain.SignedPreKeyID) (bool, error) {
	_, ok, err := s.LoadSignedPreKey(id)
	return ok, err
}

// RemoveSignedPreKey deletes id; removing a missing id is not an error.
func (s *PreKeyFileStore) RemoveSignedPreKey(id domain.SignedPreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.signedPreKeys()
	if err != nil {
		return err
	}
	if _, ok := m[idKey(id)]; !ok {
		return nil
	}
	delete(m, idKey(id))
	return writeJSON(filepath.Join(s.dir, signedPreKeysFile), m, 0o600)
}

// sortSignedPreKeys orders by timestamp, then id.
func sortSignedPreKeys(recs []domain.SignedPreKeyRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Timestamp != recs[j].Timestamp {
			return recs[i].Timestamp < recs[j].Timestamp
		}
		return recs[i].ID < recs[j].ID
	})
}

// Compile-time assertions that PreKeyFileStore implements the pre-key contracts.
var (
	_ domain.PreKeyStore       = (*PreKeyFileStore)(nil)
	_ domain.SignedPreKeyStore = (*PreKeyFileStore)(nil)
)
