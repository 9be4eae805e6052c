package session_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/chain"
	"axolotl/internal/protocol/kdf"
	"axolotl/internal/protocol/session"
)

func ck(b byte, idx uint32) chain.ChainKey {
	return chain.NewChainKey(kdf.V3(), bytes.Repeat([]byte{b}, 32), idx)
}

func pub(b byte) types.X25519Public {
	var p types.X25519Public
	p[0] = b
	return p
}

func TestState_ReceiverChainsEvictOldest(t *testing.T) {
	st := session.NewState(session.Limits{MaxReceiverChains: 3})
	for i := byte(1); i <= 5; i++ {
		st.AddReceiverChain(pub(i), ck(i, 0))
	}

	require.Len(t, st.ReceiverChains(), 3)
	require.False(t, st.HasReceiverChain(pub(1)))
	require.False(t, st.HasReceiverChain(pub(2)))
	for i := byte(3); i <= 5; i++ {
		require.True(t, st.HasReceiverChain(pub(i)))
	}
}

func TestState_MessageKeysEvictOldest(t *testing.T) {
	st := session.NewState(session.Limits{MaxMessageKeys: 4})
	their := pub(9)
	c := ck(9, 0)
	st.AddReceiverChain(their, c)

	for i := 0; i < 6; i++ {
		st.SetMessageKeys(their, c.MessageKeys())
		c = c.Next()
	}
	require.False(t, st.HasMessageKeys(their, 0))
	require.False(t, st.HasMessageKeys(their, 1))
	require.True(t, st.HasMessageKeys(their, 2))
	require.True(t, st.HasMessageKeys(their, 5))

	mk, ok := st.RemoveMessageKeys(their, 3)
	require.True(t, ok)
	require.Equal(t, uint32(3), mk.Index)
	require.False(t, st.HasMessageKeys(their, 3))

	_, ok = st.RemoveMessageKeys(their, 3)
	require.False(t, ok)
}

func TestState_DefaultLimits(t *testing.T) {
	st := session.NewState(session.Limits{})
	require.Equal(t, session.DefaultLimits(), st.Limits())
}

func TestState_CloneIsDeep(t *testing.T) {
	st := session.NewState(session.DefaultLimits())
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	st.SetSenderChain(kp, ck(1, 0))
	st.AddReceiverChain(pub(2), ck(2, 0))
	st.SetMessageKeys(pub(2), ck(2, 0).MessageKeys())
	id := types.PreKeyID(7)
	st.SetPendingPreKey(session.PendingPreKey{PreKeyID: &id, SignedPreKeyID: 1})

	c := st.Clone()
	c.SetSenderChainKey(ck(1, 0).Next())
	c.SetReceiverChainKey(pub(2), ck(2, 0).Next())
	_, _ = c.RemoveMessageKeys(pub(2), 0)
	c.ClearPendingPreKey()
	c.AddReceiverChain(pub(3), ck(3, 0))

	require.Equal(t, uint32(0), st.SenderChainKey().Index())
	got, ok := st.ReceiverChainKey(pub(2))
	require.True(t, ok)
	require.Equal(t, uint32(0), got.Index())
	require.True(t, st.HasMessageKeys(pub(2), 0))
	require.True(t, st.HasPendingPreKey())
	require.False(t, st.HasReceiverChain(pub(3)))
}

func TestState_ReplaceWipesSupersededChains(t *testing.T) {
	st := session.NewState(session.DefaultLimits())
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	st.SetSenderChain(kp, ck(1, 0))
	st.AddReceiverChain(pub(2), ck(2, 0))
	st.SetMessageKeys(pub(2), ck(2, 0).MessageKeys())

	next := st.Clone()
	next.SetReceiverChainKey(pub(2), ck(2, 0).Next())
	old := st.ReceiverChains()[0]

	st.Replace(next)

	zero := make([]byte, 32)
	require.Equal(t, zero, old.ChainKey.Key())
	require.Equal(t, [32]byte{}, old.MessageKeys[0].CipherKey)
	require.Equal(t, [32]byte{}, old.MessageKeys[0].MacKey)

	got, ok := st.ReceiverChainKey(pub(2))
	require.True(t, ok)
	require.Equal(t, uint32(1), got.Index())
	require.Equal(t, kp, st.SenderRatchetKeyPair())
	require.True(t, st.HasMessageKeys(pub(2), 0))
	require.NotEqual(t, zero, st.SenderChainKey().Key())
}

func TestRecord_ArchiveAndLookup(t *testing.T) {
	rec := session.NewRecord(session.DefaultLimits())
	require.True(t, rec.IsFresh())

	for i := 0; i < session.MaxArchivedStates+5; i++ {
		st := session.NewState(session.DefaultLimits())
		st.SetVersion(3)
		st.SetAliceBaseKey(pub(byte(i)))
		rec.PromoteState(st)
	}
	require.False(t, rec.IsFresh())
	require.Len(t, rec.PreviousStates(), session.MaxArchivedStates)

	last := byte(session.MaxArchivedStates + 4)
	require.True(t, rec.HasSessionState(3, pub(last)))
	require.True(t, rec.HasSessionState(3, pub(last-1)))
	require.False(t, rec.HasSessionState(2, pub(last)))
	// The first few states fell off the archive.
	require.False(t, rec.HasSessionState(3, pub(1)))

	rec.ArchiveCurrentState()
	require.Zero(t, rec.State().Version())
	require.True(t, rec.HasSessionState(3, pub(last)))
}

func TestRecord_CBORRoundTrip(t *testing.T) {
	st := session.NewState(session.DefaultLimits())
	st.SetVersion(3)
	st.SetLocalIdentity(pub(1))
	st.SetRemoteIdentity(pub(2))
	st.SetRootKey(chain.NewRootKey(kdf.V3(), bytes.Repeat([]byte{3}, 32)))
	st.SetPreviousCounter(4)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	st.SetSenderChain(kp, ck(5, 6))
	st.AddReceiverChain(pub(7), ck(7, 2))
	st.SetMessageKeys(pub(7), ck(7, 1).MessageKeys())
	id := types.PreKeyID(11)
	st.SetPendingPreKey(session.PendingPreKey{PreKeyID: &id, SignedPreKeyID: 12, BaseKey: pub(13)})
	st.SetLocalRegistrationID(14)
	st.SetRemoteRegistrationID(15)
	st.SetAliceBaseKey(pub(16))

	rec := session.NewRecord(session.DefaultLimits())
	rec.PromoteState(st)

	raw, err := rec.MarshalBinary()
	require.NoError(t, err)

	var got session.Record
	require.NoError(t, got.UnmarshalBinary(raw))

	again, err := got.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, raw, again)

	s := got.State()
	require.Equal(t, 3, s.Version())
	require.Equal(t, kp, s.SenderRatchetKeyPair())
	require.Equal(t, uint32(6), s.SenderChainKey().Index())
	require.True(t, s.HasMessageKeys(pub(7), 1))
	p, ok := s.PendingPreKey()
	require.True(t, ok)
	require.Equal(t, types.PreKeyID(11), *p.PreKeyID)
	require.Equal(t, types.RegistrationID(15), s.RemoteRegistrationID())
	require.Len(t, got.PreviousStates(), 1)
	require.True(t, got.HasSessionState(3, pub(16)))
}

func TestRecord_UnmarshalRejectsGarbage(t *testing.T) {
	var rec session.Record
	require.Error(t, rec.UnmarshalBinary([]byte{0xff, 0x00}))
}
