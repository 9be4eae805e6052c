package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/relay"
	identitysvc "axolotl/internal/services/identity"
	"axolotl/internal/store"
	"axolotl/internal/store/pgstore"
)

// Wire holds what is available before the identity is unlocked: the sealed
// keyring, account profiles and the relay client.
type Wire struct {
	Config   Config
	Keyring  *store.IdentityFileStore
	Accounts *store.AccountFileStore
	Identity domain.IdentityService
	Relay    *relay.Client
	Log      *slog.Logger
}

// NewWire constructs the first half of the dependency graph from cfg.
func NewWire(cfg Config, log *slog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	keyring := store.NewIdentityFileStore(cfg.Home)

	return &Wire{
		Config:   cfg,
		Keyring:  keyring,
		Accounts: store.NewAccountFileStore(cfg.Home),
		Identity: identitysvc.New(keyring),
		Relay:    relay.New(cfg.RelayURL, httpClient),
		Log:      log,
	}, nil
}

// Open unlocks the identity with passphrase and builds the protocol store
// and the services that need it.
func (w *Wire) Open(ctx context.Context, passphrase string) (*App, error) {
	if w.Config.DatabaseURL == "" {
		if err := w.Keyring.Unlock(passphrase); err != nil {
			return nil, err
		}
		fs := &store.FileStore{
			IdentityFileStore: w.Keyring,
			PreKeyFileStore:   store.NewPreKeyFileStore(w.Config.Home),
			SessionFileStore:  store.NewSessionFileStore(w.Config.Home, w.Config.Limits),
		}
		return New(fs, w.Relay, w.Config.Limits, w.Log, nil), nil
	}

	id, err := w.Keyring.LoadLocalIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	pool, err := pgstore.NewPool(ctx, w.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pgstore.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	// Rows are owned by the identity fingerprint, so several local
	// identities can share a database.
	owner := domain.Username(crypto.Fingerprint(id.XPub))
	ps := pgstore.New(pool, owner, id, w.Config.Limits)
	w.Log.Debug("using postgres store", "owner", owner)
	return New(ps, w.Relay, w.Config.Limits, w.Log, pool.Close), nil
}
