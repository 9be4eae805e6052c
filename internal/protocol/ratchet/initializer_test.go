package ratchet_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/ratchet"
	"axolotl/internal/protocol/session"
	"axolotl/internal/protocol/wire"
)

func newPair(t *testing.T) types.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

// pair returns freshly initialised Alice and Bob states, optionally with a
// one-time prekey.
func pair(t *testing.T, limits session.Limits, withOneTime bool) (alice, bob *session.State) {
	t.Helper()
	aliceIdentity, aliceBase := newPair(t), newPair(t)
	bobIdentity, bobSignedPreKey := newPair(t), newPair(t)

	ap := ratchet.AliceParameters{
		OurIdentity:       aliceIdentity,
		OurBaseKey:        aliceBase,
		TheirIdentity:     bobIdentity.Public,
		TheirSignedPreKey: bobSignedPreKey.Public,
		TheirRatchetKey:   bobSignedPreKey.Public,
	}
	bp := ratchet.BobParameters{
		OurIdentity:     bobIdentity,
		OurSignedPreKey: bobSignedPreKey,
		OurRatchetKey:   bobSignedPreKey,
		TheirIdentity:   aliceIdentity.Public,
		TheirBaseKey:    aliceBase.Public,
	}
	if withOneTime {
		otk := newPair(t)
		ap.TheirOneTimePreKey = &otk.Public
		bp.OurOneTimePreKey = &otk
	}

	alice = session.NewState(limits)
	require.NoError(t, ratchet.InitializeAlice(alice, ap))
	bob = session.NewState(limits)
	require.NoError(t, ratchet.InitializeBob(bob, bp))
	return alice, bob
}

func TestInitialize_AliceReceiverMatchesBobSender(t *testing.T) {
	for _, withOneTime := range []bool{false, true} {
		alice, bob := pair(t, session.DefaultLimits(), withOneTime)

		aliceRecv, ok := alice.ReceiverChainKey(bob.SenderRatchetKey())
		require.True(t, ok)
		require.Equal(t, bob.SenderChainKey().Key(), aliceRecv.Key())
		require.Zero(t, aliceRecv.Index())

		require.Equal(t, 3, alice.Version())
		require.Equal(t, 3, bob.Version())
		require.Equal(t, alice.LocalIdentity(), bob.RemoteIdentity())
		require.Equal(t, bob.LocalIdentity(), alice.RemoteIdentity())
		require.Empty(t, bob.ReceiverChains())
		require.NotEqual(t, alice.RootKey().Bytes(), bob.RootKey().Bytes())
	}
}

func TestInitialize_MismatchedOneTimePreKeyDiverges(t *testing.T) {
	aliceIdentity, aliceBase := newPair(t), newPair(t)
	bobIdentity, bobSignedPreKey := newPair(t), newPair(t)
	otk := newPair(t)

	alice := session.NewState(session.DefaultLimits())
	require.NoError(t, ratchet.InitializeAlice(alice, ratchet.AliceParameters{
		OurIdentity:        aliceIdentity,
		OurBaseKey:         aliceBase,
		TheirIdentity:      bobIdentity.Public,
		TheirSignedPreKey:  bobSignedPreKey.Public,
		TheirOneTimePreKey: &otk.Public,
		TheirRatchetKey:    bobSignedPreKey.Public,
	}))
	bob := session.NewState(session.DefaultLimits())
	require.NoError(t, ratchet.InitializeBob(bob, ratchet.BobParameters{
		OurIdentity:     bobIdentity,
		OurSignedPreKey: bobSignedPreKey,
		OurRatchetKey:   bobSignedPreKey,
		TheirIdentity:   aliceIdentity.Public,
		TheirBaseKey:    aliceBase.Public,
	}))

	aliceRecv, ok := alice.ReceiverChainKey(bob.SenderRatchetKey())
	require.True(t, ok)
	require.NotEqual(t, bob.SenderChainKey().Key(), aliceRecv.Key())
}

func TestInitialize_LowOrderKey(t *testing.T) {
	st := session.NewState(session.DefaultLimits())
	err := ratchet.InitializeAlice(st, ratchet.AliceParameters{
		OurIdentity:     newPair(t),
		OurBaseKey:      newPair(t),
		TheirIdentity:   types.X25519Public{},
		TheirRatchetKey: newPair(t).Public,
	})
	require.ErrorIs(t, err, crypto.ErrInvalidKey)
	require.False(t, st.HasSenderChain())
}

func TestIsAlice(t *testing.T) {
	lo := types.X25519Public{0x01}
	hi := types.X25519Public{0x80}
	require.True(t, ratchet.IsAlice(lo, hi))
	require.False(t, ratchet.IsAlice(hi, lo))
	require.False(t, ratchet.IsAlice(lo, lo))
}

func TestInitialize_SymmetricRoles(t *testing.T) {
	aBase, aRatchet, aIdentity := newPair(t), newPair(t), newPair(t)
	bBase, bRatchet, bIdentity := newPair(t), newPair(t), newPair(t)

	a := session.NewState(session.DefaultLimits())
	require.NoError(t, ratchet.Initialize(a, ratchet.SymmetricParameters{
		OurBaseKey: aBase, OurRatchetKey: aRatchet, OurIdentity: aIdentity,
		TheirBaseKey: bBase.Public, TheirRatchetKey: bRatchet.Public, TheirIdentity: bIdentity.Public,
	}))
	b := session.NewState(session.DefaultLimits())
	require.NoError(t, ratchet.Initialize(b, ratchet.SymmetricParameters{
		OurBaseKey: bBase, OurRatchetKey: bRatchet, OurIdentity: bIdentity,
		TheirBaseKey: aBase.Public, TheirRatchetKey: aRatchet.Public, TheirIdentity: aIdentity.Public,
	}))

	aliceSide, bobSide := a, b
	if bytes.Compare(bBase.Public[:], aBase.Public[:]) < 0 {
		aliceSide, bobSide = b, a
	}
	// Alice holds one receiver chain, Bob none.
	require.Len(t, aliceSide.ReceiverChains(), 1)
	require.Empty(t, bobSide.ReceiverChains())

	// Either side can speak first.
	msg, err := ratchet.Encrypt(bobSide, []byte("from bob"))
	require.NoError(t, err)
	pt, err := ratchet.Decrypt(aliceSide, msg.(*wire.SignalMessage))
	require.NoError(t, err)
	require.Equal(t, []byte("from bob"), pt)

	msg, err = ratchet.Encrypt(aliceSide, []byte("from alice"))
	require.NoError(t, err)
	pt, err = ratchet.Decrypt(bobSide, msg.(*wire.SignalMessage))
	require.NoError(t, err)
	require.Equal(t, []byte("from alice"), pt)
}
