package interfaces

import (
	"context"

	domaintypes "axolotl/internal/domain/types"
)

// RelayClient is how we talk to the central relay server, all with context.
//
// Register returns the bearer token that guards the caller's mailbox and
// bundle; the remaining calls that need it read it from the client.
type RelayClient interface {
	Register(ctx context.Context, addr domaintypes.Address) (token string, err error)

	PublishBundle(ctx context.Context, bundle domaintypes.PublishedBundle) error
	FetchBundle(ctx context.Context, addr domaintypes.Address) (domaintypes.PreKeyBundle, error)

	SendMessage(ctx context.Context, envelope domaintypes.Envelope) (string, error)
	FetchMessages(
		ctx context.Context,
		addr domaintypes.Address,
		limit int,
	) ([]domaintypes.Envelope, error)
	AckMessages(ctx context.Context, addr domaintypes.Address, ids []string) error
}
