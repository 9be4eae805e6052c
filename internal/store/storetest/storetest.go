// Package storetest holds a conformance suite every ProtocolStore
// implementation runs from its own tests.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
)

// Factory returns a fresh, empty store owned by identity.
type Factory func(t *testing.T, identity domain.Identity) domain.ProtocolStore

// NewIdentity returns a random identity for tests.
func NewIdentity(t *testing.T, regID domain.RegistrationID) domain.Identity {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	edPriv, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv, RegistrationID: regID}
}

// Run exercises every ProtocolStore method against stores built by f.
func Run(t *testing.T, f Factory) {
	t.Run("Identity", func(t *testing.T) { testIdentity(t, f) })
	t.Run("PreKeys", func(t *testing.T) { testPreKeys(t, f) })
	t.Run("SignedPreKeys", func(t *testing.T) { testSignedPreKeys(t, f) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, f) })
}

func testIdentity(t *testing.T, f Factory) {
	id := NewIdentity(t, 4242)
	s := f(t, id)

	got, err := s.IdentityKeyPair()
	require.NoError(t, err)
	require.Equal(t, id.XPub, got.XPub)
	require.Equal(t, id.EdPub, got.EdPub)

	reg, err := s.LocalRegistrationID()
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationID(4242), reg)

	first := NewIdentity(t, 1).XPub
	other := NewIdentity(t, 2).XPub

	ok, err := s.IsTrustedIdentity("bob", first)
	require.NoError(t, err)
	require.True(t, ok, "unseen names are trusted on first use")

	_, found, err := s.RemoteIdentity("bob")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.SaveIdentity("bob", first))
	ok, err = s.IsTrustedIdentity("bob", first)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.IsTrustedIdentity("bob", other)
	require.NoError(t, err)
	require.False(t, ok, "a changed key is untrusted")

	k, found, err := s.RemoteIdentity("bob")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, first, k)
}

func testPreKeys(t *testing.T, f Factory) {
	s := f(t, NewIdentity(t, 1))
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	_, ok, err := s.LoadPreKey(7)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.StorePreKey(domain.PreKeyRecord{ID: 7, KeyPair: kp}))
	rec, ok, err := s.LoadPreKey(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, kp, rec.KeyPair)

	has, err := s.ContainsPreKey(7)
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, s.RemovePreKey(7))
	has, err = s.ContainsPreKey(7)
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, s.RemovePreKey(7))
}

func testSignedPreKeys(t *testing.T, f Factory) {
	s := f(t, NewIdentity(t, 1))

	for i, ts := range []int64{300, 100, 200} {
		kp, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		require.NoError(t, s.StoreSignedPreKey(domain.SignedPreKeyRecord{
			ID:        domain.SignedPreKeyID(i + 1),
			KeyPair:   kp,
			Signature: []byte{byte(i)},
			Timestamp: ts,
		}))
	}

	all, err := s.LoadSignedPreKeys()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []domain.SignedPreKeyID{2, 3, 1}, []domain.SignedPreKeyID{all[0].ID, all[1].ID, all[2].ID})

	rec, ok, err := s.LoadSignedPreKey(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{2}, rec.Signature)

	require.NoError(t, s.RemoveSignedPreKey(3))
	has, err := s.ContainsSignedPreKey(3)
	require.NoError(t, err)
	require.False(t, has)
	has, err = s.ContainsSignedPreKey(1)
	require.NoError(t, err)
	require.True(t, has)
}

func testSessions(t *testing.T, f Factory) {
	s := f(t, NewIdentity(t, 1))
	bob1 := domain.Address{Name: "bob", DeviceID: 1}
	bob2 := domain.Address{Name: "bob", DeviceID: 2}
	carol := domain.Address{Name: "carol", DeviceID: 1}

	_, ok, err := s.LoadSession(bob1)
	require.NoError(t, err)
	require.False(t, ok)

	st := session.NewState(session.DefaultLimits())
	st.SetVersion(3)
	st.SetRemoteRegistrationID(99)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	st.SetSenderChain(kp, session.NewState(session.DefaultLimits()).SenderChainKey())
	rec := session.NewRecordFromState(st)

	for _, a := range []domain.Address{bob1, bob2, carol} {
		require.NoError(t, s.StoreSession(a, rec))
	}

	got, ok, err := s.LoadSession(bob1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.RegistrationID(99), got.State().RemoteRegistrationID())

	// A loaded record is a private copy.
	got.State().SetRemoteRegistrationID(1)
	again, _, err := s.LoadSession(bob1)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationID(99), again.State().RemoteRegistrationID())

	has, err := s.ContainsSession(bob1)
	require.NoError(t, err)
	require.True(t, has)

	devices, err := s.DeviceSessions("bob")
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, devices)

	require.NoError(t, s.DeleteSession(bob2))
	devices, err = s.DeviceSessions("bob")
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, devices)

	require.NoError(t, s.DeleteAllSessions("bob"))
	has, err = s.ContainsSession(bob1)
	require.NoError(t, err)
	require.False(t, has)
	has, err = s.ContainsSession(carol)
	require.NoError(t, err)
	require.True(t, has)
}
