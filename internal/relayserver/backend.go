package relayserver

import (
	"context"
	"errors"

	"axolotl/internal/domain"
)

var (
	// ErrNotFound is returned for an unknown account or a missing bundle.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when registering an address twice.
	ErrExists = errors.New("already registered")
)

// Backend is where the relay keeps accounts, bundles and mailboxes.
//
// Mailboxes are FIFO. Fetch does not remove anything; Ack removes by id.
type Backend interface {
	CreateAccount(ctx context.Context, addr domain.Address) error
	AccountExists(ctx context.Context, addr domain.Address) (bool, error)

	// PutBundle replaces the signed part of addr's bundle and appends the
	// one-time pre-keys to any still held.
	PutBundle(ctx context.Context, bundle domain.PublishedBundle) error
	// TakeBundle returns the bundle with the oldest one-time pre-key,
	// removing that key.
	TakeBundle(ctx context.Context, addr domain.Address) (domain.PreKeyBundle, error)

	Enqueue(ctx context.Context, env domain.Envelope) error
	Fetch(ctx context.Context, addr domain.Address, limit int) ([]domain.Envelope, error)
	Ack(ctx context.Context, addr domain.Address, ids []string) (int, error)
}
