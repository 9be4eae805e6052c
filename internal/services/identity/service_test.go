package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/services/identity"
	"axolotl/internal/store"
)

const strong = "Correct-Horse-9-Battery"

func newService(t *testing.T) (*identity.Service, *store.IdentityFileStore) {
	t.Helper()
	ks := store.NewIdentityFileStore(t.TempDir()).WithScryptParams(store.ScryptParams{N: 1 << 10, R: 8, P: 1})
	return identity.New(ks), ks
}

func TestGenerateIdentity_RejectsWeakPassphrase(t *testing.T) {
	svc, _ := newService(t)
	for _, p := range []string{"short", "alllowercase123!", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateIdentity(p)
		require.ErrorIs(t, err, identity.ErrWeakPassphrase, p)
	}
}

func TestGenerateIdentity_RoundTrip(t *testing.T) {
	svc, ks := newService(t)

	id, fp, err := svc.GenerateIdentity(strong)
	require.NoError(t, err)
	require.NotZero(t, id.RegistrationID)
	require.LessOrEqual(t, uint32(id.RegistrationID), uint32(16380))
	require.Len(t, string(fp), 20)

	loaded, err := svc.LoadIdentity(strong)
	require.NoError(t, err)
	require.Equal(t, id, loaded)

	again, err := svc.FingerprintIdentity(strong)
	require.NoError(t, err)
	require.Equal(t, fp, again)

	// Saving also unlocks the file store for protocol use.
	got, err := ks.IdentityKeyPair()
	require.NoError(t, err)
	require.Equal(t, id.XPub, got.XPub)
}

func TestLoadIdentity_WrongPassphrase(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.GenerateIdentity(strong)
	require.NoError(t, err)

	_, err = svc.LoadIdentity("Wrong-Horse-9-Battery")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestGenerateRegistrationID_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		id, err := identity.GenerateRegistrationID()
		require.NoError(t, err)
		require.GreaterOrEqual(t, uint32(id), uint32(1))
		require.LessOrEqual(t, uint32(id), uint32(16380))
	}
}
