package pgstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
	"axolotl/internal/store/pgstore"
	"axolotl/internal/store/storetest"
)

// Set AXOLOTL_TEST_PG_DSN to a scratch database to run this suite.
func TestStore_ProtocolStore(t *testing.T) {
	dsn := os.Getenv("AXOLOTL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AXOLOTL_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgstore.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pgstore.Migrate(ctx, pool))
	// Idempotent.
	require.NoError(t, pgstore.Migrate(ctx, pool))

	storetest.Run(t, func(t *testing.T, id domain.Identity) domain.ProtocolStore {
		// A fresh owner per subtest keeps runs independent.
		owner := domain.Username("test-" + uuid.NewString())
		return pgstore.New(pool, owner, id, session.DefaultLimits())
	})
}
