package store

import (
	"sort"
	"sync"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
)

// Memory is an in-process ProtocolStore. Session records are kept in their
// serialised form so a loaded record is a private copy, as with the file
// and database stores.
type Memory struct {
	mu            sync.Mutex
	identity      domain.Identity
	limits        session.Limits
	trusted       map[domain.Username]domain.X25519Public
	preKeys       map[domain.PreKeyID]domain.PreKeyRecord
	signedPreKeys map[domain.SignedPreKeyID]domain.SignedPreKeyRecord
	sessions      map[domain.Address][]byte
}

// NewMemory returns an empty store owned by identity.
func NewMemory(identity domain.Identity, limits session.Limits) *Memory {
	return &Memory{
		identity:      identity,
		limits:        limits,
		trusted:       make(map[domain.Username]domain.X25519Public),
		preKeys:       make(map[domain.PreKeyID]domain.PreKeyRecord),
		signedPreKeys: make(map[domain.SignedPreKeyID]domain.SignedPreKeyRecord),
		sessions:      make(map[domain.Address][]byte),
	}
}

func (m *Memory) IdentityKeyPair() (domain.Identity, error) { return m.identity, nil }

func (m *Memory) LocalRegistrationID() (domain.RegistrationID, error) {
	return m.identity.RegistrationID, nil
}

func (m *Memory) SaveIdentity(name domain.Username, key domain.X25519Public) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trusted[name] = key
	return nil
}

func (m *Memory) IsTrustedIdentity(name domain.Username, key domain.X25519Public) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	known, ok := m.trusted[name]
	return !ok || known == key, nil
}

func (m *Memory) RemoteIdentity(name domain.Username) (domain.X25519Public, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.trusted[name]
	return k, ok, nil
}

func (m *Memory) LoadPreKey(id domain.PreKeyID) (domain.PreKeyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.preKeys[id]
	return rec, ok, nil
}

func (m *Memory) StorePreKey(rec domain.PreKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preKeys[rec.ID] = rec
	return nil
}

func (m *Memory) ContainsPreKey(id domain.PreKeyID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.preKeys[id]
	return ok, nil
}

func (m *Memory) RemovePreKey(id domain.PreKeyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.preKeys, id)
	return nil
}

func (m *Memory) LoadSignedPreKey(id domain.SignedPreKeyID) (domain.SignedPreKeyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.signedPreKeys[id]
	return rec, ok, nil
}

func (m *Memory) LoadSignedPreKeys() ([]domain.SignedPreKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SignedPreKeyRecord, 0, len(m.signedPreKeys))
	for _, rec := range m.signedPreKeys {
		out = append(out, rec)
	}
	sortSignedPreKeys(out)
	return out, nil
}

func (m *Memory) StoreSignedPreKey(rec domain.SignedPreKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signedPreKeys[rec.ID] = rec
	return nil
}

func (m *Memory) ContainsSignedPreKey(id domain.SignedPreKeyID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.signedPreKeys[id]
	return ok, nil
}

func (m *Memory) RemoveSignedPreKey(id domain.SignedPreKeyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.signedPreKeys, id)
	return nil
}

func (m *Memory) LoadSession(addr domain.Address) (*session.Record, bool, error) {
	m.mu.Lock()
	b, ok := m.sessions[addr]
	m.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	rec := new(session.Record)
	if err := rec.UnmarshalBinary(b); err != nil {
		return nil, false, err
	}
	rec.SetLimits(m.limits)
	return rec, true, nil
}

func (m *Memory) StoreSession(addr domain.Address, rec *session.Record) error {
	b, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[addr] = b
	return nil
}

func (m *Memory) ContainsSession(addr domain.Address) (bool, error) {
	rec, ok, err := m.LoadSession(addr)
	if err != nil || !ok {
		return false, err
	}
	return rec.State().HasSenderChain(), nil
}

func (m *Memory) DeleteSession(addr domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, addr)
	return nil
}

func (m *Memory) DeleteAllSessions(name domain.Username) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for addr := range m.sessions {
		if addr.Name == name {
			delete(m.sessions, addr)
		}
	}
	return nil
}

func (m *Memory) DeviceSessions(name domain.Username) ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint32
	for addr := range m.sessions {
		if addr.Name == name {
			out = append(out, addr.DeviceID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Compile-time assertion that Memory implements domain.ProtocolStore.
var _ domain.ProtocolStore = (*Memory)(nil)
