package prekey_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/crypto"
	"axolotl/internal/protocol/session"
	"axolotl/internal/services/prekey"
	"axolotl/internal/store"
	"axolotl/internal/store/storetest"
)

func TestGenerateSignedPreKey_IncreasingIDsAndValidSignature(t *testing.T) {
	id := storetest.NewIdentity(t, 7)
	mem := store.NewMemory(id, session.DefaultLimits())
	svc := prekey.New(mem, mem, mem)

	first, err := svc.GenerateSignedPreKey()
	require.NoError(t, err)
	second, err := svc.GenerateSignedPreKey()
	require.NoError(t, err)

	require.Equal(t, first.ID+1, second.ID)
	require.True(t, crypto.VerifyPreKey(id.EdPub, second.KeyPair.Public, second.Signature))

	ok, err := mem.ContainsSignedPreKey(first.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPublishedBundle(t *testing.T) {
	id := storetest.NewIdentity(t, 7)
	mem := store.NewMemory(id, session.DefaultLimits())
	svc := prekey.New(mem, mem, mem)

	_, err := svc.PublishedBundle("alice", 1)
	require.ErrorIs(t, err, prekey.ErrNoSignedPreKey)

	spk, err := svc.GenerateSignedPreKey()
	require.NoError(t, err)
	recs, err := svc.GeneratePreKeys(10)
	require.NoError(t, err)
	require.Len(t, recs, 10)

	seen := map[uint32]bool{}
	for _, r := range recs {
		require.False(t, seen[uint32(r.ID)], "duplicate id %d", r.ID)
		seen[uint32(r.ID)] = true
		ok, err := mem.ContainsPreKey(r.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}

	b, err := svc.PublishedBundle("alice", 1)
	require.NoError(t, err)
	require.Equal(t, id.XPub, b.IdentityKey)
	require.Equal(t, id.EdPub, b.SigningKey)
	require.Equal(t, id.RegistrationID, b.RegistrationID)
	require.Equal(t, spk.ID, b.SignedPreKeyID)
	require.Equal(t, spk.KeyPair.Public, b.SignedPreKey)
	require.Len(t, b.OneTimePreKeys, 10)
	require.Equal(t, recs[0].ID, b.OneTimePreKeys[0].ID)
	require.Equal(t, recs[0].KeyPair.Public, b.OneTimePreKeys[0].Key)

	// One-time keys are handed out once.
	again, err := svc.PublishedBundle("alice", 1)
	require.NoError(t, err)
	require.Empty(t, again.OneTimePreKeys)
}
