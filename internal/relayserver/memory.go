package relayserver

import (
	"context"
	"sync"

	"axolotl/internal/domain"
)

// MemoryBackend keeps everything in process memory.
type MemoryBackend struct {
	mu        sync.Mutex
	accounts  map[domain.Address]struct{}
	bundles   map[domain.Address]domain.PublishedBundle
	mailboxes map[domain.Address][]domain.Envelope
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		accounts:  make(map[domain.Address]struct{}),
		bundles:   make(map[domain.Address]domain.PublishedBundle),
		mailboxes: make(map[domain.Address][]domain.Envelope),
	}
}

func (m *MemoryBackend) CreateAccount(_ context.Context, addr domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[addr]; ok {
		return ErrExists
	}
	m.accounts[addr] = struct{}{}
	return nil
}

func (m *MemoryBackend) AccountExists(_ context.Context, addr domain.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[addr]
	return ok, nil
}

func (m *MemoryBackend) PutBundle(_ context.Context, b domain.PublishedBundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := domain.Address{Name: b.Username, DeviceID: b.DeviceID}
	old := m.bundles[addr].OneTimePreKeys
	b.OneTimePreKeys = append(append([]domain.OneTimePreKey(nil), old...), b.OneTimePreKeys...)
	m.bundles[addr] = b
	return nil
}

func (m *MemoryBackend) TakeBundle(_ context.Context, addr domain.Address) (domain.PreKeyBundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bundles[addr]
	if !ok {
		return domain.PreKeyBundle{}, ErrNotFound
	}
	var otk *domain.OneTimePreKey
	if len(b.OneTimePreKeys) > 0 {
		first := b.OneTimePreKeys[0]
		otk = &first
		b.OneTimePreKeys = b.OneTimePreKeys[1:]
		m.bundles[addr] = b
	}
	return b.Take(otk), nil
}

func (m *MemoryBackend) Enqueue(_ context.Context, env domain.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mailboxes[env.To] = append(m.mailboxes[env.To], env)
	return nil
}

func (m *MemoryBackend) Fetch(_ context.Context, addr domain.Address, limit int) ([]domain.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	box := m.mailboxes[addr]
	if limit > 0 && len(box) > limit {
		box = box[:limit]
	}
	return append(make([]domain.Envelope, 0, len(box)), box...), nil
}

func (m *MemoryBackend) Ack(_ context.Context, addr domain.Address, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	box := m.mailboxes[addr]
	keep := box[:0:0]
	for _, env := range box {
		if !drop[env.ID] {
			keep = append(keep, env)
		}
	}
	m.mailboxes[addr] = keep
	return len(box) - len(keep), nil
}

var _ Backend = (*MemoryBackend)(nil)
