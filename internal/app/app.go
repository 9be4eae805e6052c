package app

import (
	"log/slog"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
	messagesvc "axolotl/internal/services/message"
	prekeysvc "axolotl/internal/services/prekey"
	sessionsvc "axolotl/internal/services/session"
)

// App is the unlocked application: a protocol store and the services that
// run over it.
type App struct {
	Store    domain.ProtocolStore
	PreKeys  domain.PreKeyService
	Sessions domain.SessionService
	Messages domain.MessageService
	Relay    domain.RelayClient

	closer func()
}

// New builds the services over ps. closer, if set, runs on Close.
func New(
	ps domain.ProtocolStore,
	relay domain.RelayClient,
	limits session.Limits,
	log *slog.Logger,
	closer func(),
) *App {
	sessions := sessionsvc.New(ps, relay, limits, log)
	return &App{
		Store:    ps,
		PreKeys:  prekeysvc.New(ps, ps, ps),
		Sessions: sessions,
		Messages: messagesvc.New(ps, sessions, relay, limits, log),
		Relay:    relay,
		closer:   closer,
	}
}

// Close releases resources held by the store.
func (a *App) Close() {
	if a.closer != nil {
		a.closer()
	}
}
