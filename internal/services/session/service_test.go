package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/ratchet"
	protosession "axolotl/internal/protocol/session"
	"axolotl/internal/protocol/wire"
	"axolotl/internal/services/prekey"
	"axolotl/internal/services/session"
	"axolotl/internal/store"
	"axolotl/internal/store/storetest"
)

type party struct {
	addr    domain.Address
	id      domain.Identity
	store   *store.Memory
	builder *session.Builder
	bundle  domain.PreKeyBundle
}

func newParty(t *testing.T, name domain.Username, regID domain.RegistrationID) *party {
	t.Helper()
	id := storetest.NewIdentity(t, regID)
	mem := store.NewMemory(id, protosession.DefaultLimits())
	pks := prekey.New(mem, mem, mem)
	_, err := pks.GenerateSignedPreKey()
	require.NoError(t, err)
	_, err = pks.GeneratePreKeys(1)
	require.NoError(t, err)
	pub, err := pks.PublishedBundle(name, 1)
	require.NoError(t, err)

	return &party{
		addr:    domain.Address{Name: name, DeviceID: 1},
		id:      id,
		store:   mem,
		builder: session.New(mem, nil, protosession.DefaultLimits(), nil),
		bundle:  pub.Take(&pub.OneTimePreKeys[0]),
	}
}

func firstMessage(t *testing.T, alice, bob *party) *wire.PreKeySignalMessage {
	t.Helper()
	require.NoError(t, alice.builder.ProcessBundle(bob.addr, bob.bundle))

	rec, ok, err := alice.store.LoadSession(bob.addr)
	require.NoError(t, err)
	require.True(t, ok)
	out, err := ratchet.Encrypt(rec.State(), []byte("hello"))
	require.NoError(t, err)

	msg, ok := out.(*wire.PreKeySignalMessage)
	require.True(t, ok, "first message carries session setup")
	return msg
}

func TestBuilder_Handshake(t *testing.T) {
	alice := newParty(t, "alice", 11)
	bob := newParty(t, "bob", 22)

	msg := firstMessage(t, alice, bob)
	require.Equal(t, domain.RegistrationID(11), msg.RegistrationID())
	require.Equal(t, bob.bundle.SignedPreKeyID, msg.SignedPreKeyID())
	pid, ok := msg.PreKeyID()
	require.True(t, ok)
	require.Equal(t, *bob.bundle.PreKeyID, pid)

	rec := protosession.NewRecord(protosession.DefaultLimits())
	used, err := bob.builder.ProcessPreKeyMessage(alice.addr, rec, msg)
	require.NoError(t, err)
	require.NotNil(t, used)
	require.Equal(t, pid, *used)
	require.False(t, rec.IsFresh())
	require.Equal(t, domain.RegistrationID(11), rec.State().RemoteRegistrationID())

	pt, err := ratchet.DecryptRecord(rec, msg.Message())
	require.NoError(t, err)
	require.Equal(t, "hello", string(pt))

	// Both sides remember each other's identity.
	k, ok, err := bob.store.RemoteIdentity("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, alice.id.XPub, k)
	k, ok, err = alice.store.RemoteIdentity("bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bob.id.XPub, k)
}

func TestBuilder_RepeatedPreKeyMessageIsNoop(t *testing.T) {
	alice := newParty(t, "alice", 11)
	bob := newParty(t, "bob", 22)
	msg := firstMessage(t, alice, bob)

	rec := protosession.NewRecord(protosession.DefaultLimits())
	_, err := bob.builder.ProcessPreKeyMessage(alice.addr, rec, msg)
	require.NoError(t, err)

	used, err := bob.builder.ProcessPreKeyMessage(alice.addr, rec, msg)
	require.NoError(t, err)
	require.Nil(t, used)
	require.Empty(t, rec.PreviousStates())
}

func TestBuilder_RejectsBadSignature(t *testing.T) {
	alice := newParty(t, "alice", 11)
	bob := newParty(t, "bob", 22)

	bad := bob.bundle
	bad.SignedPreKeySignature = append([]byte(nil), bad.SignedPreKeySignature...)
	bad.SignedPreKeySignature[0] ^= 0xFF
	require.ErrorIs(t, alice.builder.ProcessBundle(bob.addr, bad), session.ErrInvalidSignature)

	ok, err := alice.store.ContainsSession(bob.addr)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBuilder_RejectsChangedIdentity(t *testing.T) {
	alice := newParty(t, "alice", 11)
	bob := newParty(t, "bob", 22)
	impostor := newParty(t, "bob", 33)

	require.NoError(t, alice.builder.ProcessBundle(bob.addr, bob.bundle))
	err := alice.builder.ProcessBundle(bob.addr, impostor.bundle)
	require.ErrorIs(t, err, session.ErrUntrustedIdentity)
}

func TestBuilder_MissingPreKeys(t *testing.T) {
	alice := newParty(t, "alice", 11)
	bob := newParty(t, "bob", 22)
	msg := firstMessage(t, alice, bob)

	pid, _ := msg.PreKeyID()
	require.NoError(t, bob.store.RemovePreKey(pid))
	_, err := bob.builder.ProcessPreKeyMessage(alice.addr, protosession.NewRecord(protosession.DefaultLimits()), msg)
	require.ErrorIs(t, err, session.ErrNoPreKey)

	require.NoError(t, bob.store.RemoveSignedPreKey(msg.SignedPreKeyID()))
	_, err = bob.builder.ProcessPreKeyMessage(alice.addr, protosession.NewRecord(protosession.DefaultLimits()), msg)
	require.ErrorIs(t, err, session.ErrNoSignedPreKey)
}

func TestBuilder_NewBundleArchivesOldState(t *testing.T) {
	alice := newParty(t, "alice", 11)
	bob := newParty(t, "bob", 22)

	require.NoError(t, alice.builder.ProcessBundle(bob.addr, bob.bundle))
	require.NoError(t, alice.builder.ProcessBundle(bob.addr, bob.bundle))

	rec, ok, err := alice.store.LoadSession(bob.addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rec.PreviousStates(), 1)
	require.NotEqual(t, rec.State().AliceBaseKey(), rec.PreviousStates()[0].AliceBaseKey())
}
