package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
)

const (
	sessionsDir   = "sessions"
	sessionSuffix = ".cbor"
)

// SessionFileStore persists one CBOR session record per peer device.
type SessionFileStore struct {
	dir    string
	limits session.Limits
	mu     sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir. Loaded
// records get limits applied.
func NewSessionFileStore(dir string, limits session.Limits) *SessionFileStore {
	return &SessionFileStore{dir: filepath.Join(dir, sessionsDir), limits: limits}
}

// Names are relay usernames and may not contain a path separator; the
// device id is appended after the last dot.
func (s *SessionFileStore) path(addr domain.Address) string {
	return filepath.Join(s.dir, addr.String()+sessionSuffix)
}

// LoadSession retrieves the record for addr.
func (s *SessionFileStore) LoadSession(addr domain.Address) (*session.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path(addr))
	if err != nil || b == nil {
		return nil, false, err
	}
	rec := new(session.Record)
	if err := rec.UnmarshalBinary(b); err != nil {
		return nil, false, fmt.Errorf("session %s: %w", addr, err)
	}
	rec.SetLimits(s.limits)
	return rec, true, nil
}

// StoreSession writes rec for addr.
func (s *SessionFileStore) StoreSession(addr domain.Address, rec *session.Record) error {
	if strings.ContainsAny(string(addr.Name), `/\`) {
		return fmt.Errorf("invalid session name %q", addr.Name)
	}
	b, err := rec.MarshalBinary()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(s.path(addr), b, 0o600)
}

// ContainsSession reports whether a record with a usable state exists.
func (s *SessionFileStore) ContainsSession(addr domain.Address) (bool, error) {
	rec, ok, err := s.LoadSession(addr)
	if err != nil || !ok {
		return false, err
	}
	return rec.State().HasSenderChain(), nil
}

// DeleteSession removes the record for addr.
func (s *SessionFileStore) DeleteSession(addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.path(addr))
}

// DeleteAllSessions removes the records of every device of name.
func (s *SessionFileStore) DeleteAllSessions(name domain.Username) error {
	devices, err := s.DeviceSessions(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range devices {
		if err := removeFile(s.path(domain.Address{Name: name, DeviceID: d})); err != nil {
			return err
		}
	}
	return nil
}

// DeviceSessions lists the device ids of name that have a record.
func (s *SessionFileStore) DeviceSessions(name domain.Username) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefix := string(name) + "."
	var out []uint32
	for _, e := range entries {
		base, ok := strings.CutSuffix(e.Name(), sessionSuffix)
		if !ok || !strings.HasPrefix(base, prefix) {
			continue
		}
		rest := base[len(prefix):]
		d, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Compile-time assertion that SessionFileStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionFileStore)(nil)
