package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/wire"
)

func key(t *testing.T) types.X25519Public {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return kp.Public
}

func newSignal(t *testing.T) (*wire.SignalMessage, [32]byte, types.X25519Public, types.X25519Public) {
	t.Helper()
	var macKey [32]byte
	macKey[0] = 0xAA
	alice, bob := key(t), key(t)
	m := wire.NewSignalMessage(3, macKey, key(t), 7, 3, []byte("ciphertext"), alice, bob)
	return m, macKey, alice, bob
}

func TestSignalMessage_RoundTrip(t *testing.T) {
	m, macKey, alice, bob := newSignal(t)
	require.Equal(t, byte(0x33), m.Serialize()[0])

	got, err := wire.ParseSignalMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, 3, got.Version())
	require.Equal(t, m.SenderRatchetKey(), got.SenderRatchetKey())
	require.Equal(t, uint32(7), got.Counter())
	require.Equal(t, uint32(3), got.PreviousCounter())
	require.Equal(t, []byte("ciphertext"), got.Body())
	require.Equal(t, m.Serialize(), got.Serialize())
	require.Equal(t, types.WhisperMessageType, got.Type())

	require.True(t, got.VerifyMAC(alice, bob, macKey))
	require.False(t, got.VerifyMAC(bob, alice, macKey))

	var other [32]byte
	require.False(t, got.VerifyMAC(alice, bob, other))
}

func TestSignalMessage_TamperedBodyFailsMAC(t *testing.T) {
	m, macKey, alice, bob := newSignal(t)
	raw := append([]byte(nil), m.Serialize()...)
	raw[len(raw)-wire.MacLength-1] ^= 0x01

	got, err := wire.ParseSignalMessage(raw)
	require.NoError(t, err)
	require.False(t, got.VerifyMAC(alice, bob, macKey))
}

func TestSignalMessage_VersionRejection(t *testing.T) {
	m, _, _, _ := newSignal(t)

	future := append([]byte(nil), m.Serialize()...)
	future[0] = 0x43
	_, err := wire.ParseSignalMessage(future)
	require.ErrorIs(t, err, wire.ErrUnrecognizedVersion)

	legacy := append([]byte(nil), m.Serialize()...)
	legacy[0] = 0x22
	_, err = wire.ParseSignalMessage(legacy)
	require.ErrorIs(t, err, wire.ErrLegacyVersion)
}

func TestSignalMessage_Malformed(t *testing.T) {
	_, err := wire.ParseSignalMessage([]byte{0x33, 1, 2})
	require.ErrorIs(t, err, wire.ErrInvalidMessage)

	// Counter and ciphertext missing.
	body := []byte{0x33}
	body = protowire.AppendTag(body, 1, protowire.BytesType)
	body = protowire.AppendBytes(body, key(t).Serialize())
	body = append(body, make([]byte, wire.MacLength)...)
	_, err = wire.ParseSignalMessage(body)
	require.ErrorIs(t, err, wire.ErrInvalidMessage)

	// Ratchet key without the type prefix.
	body = []byte{0x33}
	body = protowire.AppendTag(body, 1, protowire.BytesType)
	body = protowire.AppendBytes(body, key(t).Slice())
	body = protowire.AppendTag(body, 2, protowire.VarintType)
	body = protowire.AppendVarint(body, 1)
	body = protowire.AppendTag(body, 4, protowire.BytesType)
	body = protowire.AppendBytes(body, []byte("x"))
	body = append(body, make([]byte, wire.MacLength)...)
	_, err = wire.ParseSignalMessage(body)
	require.ErrorIs(t, err, wire.ErrInvalidMessage)
	require.ErrorIs(t, err, crypto.ErrInvalidKey)
}

func TestSignalMessage_EmptyCiphertextIsPresent(t *testing.T) {
	var macKey [32]byte
	alice, bob := key(t), key(t)
	m := wire.NewSignalMessage(3, macKey, key(t), 0, 0, nil, alice, bob)

	got, err := wire.ParseSignalMessage(m.Serialize())
	require.NoError(t, err)
	require.NotNil(t, got.Body())
	require.Empty(t, got.Body())
	require.True(t, got.VerifyMAC(alice, bob, macKey))
}

func TestSignalMessage_SkipsUnknownFields(t *testing.T) {
	m, _, _, _ := newSignal(t)
	raw := m.Serialize()
	body := append([]byte(nil), raw[:len(raw)-wire.MacLength]...)
	body = protowire.AppendTag(body, 99, protowire.VarintType)
	body = protowire.AppendVarint(body, 5)
	body = append(body, raw[len(raw)-wire.MacLength:]...)

	got, err := wire.ParseSignalMessage(body)
	require.NoError(t, err)
	require.Equal(t, uint32(7), got.Counter())
}

func TestPreKeySignalMessage_RoundTrip(t *testing.T) {
	inner, _, _, _ := newSignal(t)
	base, ident := key(t), key(t)
	id := types.PreKeyID(42)

	m := wire.NewPreKeySignalMessage(3, 1234, &id, 9, base, ident, inner)
	got, err := wire.ParsePreKeySignalMessage(m.Serialize())
	require.NoError(t, err)

	require.Equal(t, types.PreKeyMessageType, got.Type())
	require.Equal(t, types.RegistrationID(1234), got.RegistrationID())
	pk, ok := got.PreKeyID()
	require.True(t, ok)
	require.Equal(t, id, pk)
	require.Equal(t, types.SignedPreKeyID(9), got.SignedPreKeyID())
	require.Equal(t, base, got.BaseKey())
	require.Equal(t, ident, got.IdentityKey())
	require.Equal(t, inner.Serialize(), got.Message().Serialize())
	require.Equal(t, m.Serialize(), got.Serialize())
}

func TestPreKeySignalMessage_NoOneTimePreKey(t *testing.T) {
	inner, _, _, _ := newSignal(t)
	m := wire.NewPreKeySignalMessage(3, 1, nil, 2, key(t), key(t), inner)

	got, err := wire.ParsePreKeySignalMessage(m.Serialize())
	require.NoError(t, err)
	_, ok := got.PreKeyID()
	require.False(t, ok)
}

func TestPreKeySignalMessage_VersionAndMissingFields(t *testing.T) {
	inner, _, _, _ := newSignal(t)
	m := wire.NewPreKeySignalMessage(3, 1, nil, 2, key(t), key(t), inner)

	raw := append([]byte(nil), m.Serialize()...)
	raw[0] = 0x23
	_, err := wire.ParsePreKeySignalMessage(raw)
	require.ErrorIs(t, err, wire.ErrLegacyVersion)

	raw[0] = 0x53
	_, err = wire.ParsePreKeySignalMessage(raw)
	require.ErrorIs(t, err, wire.ErrUnrecognizedVersion)

	// No signed prekey id.
	body := []byte{0x33}
	body = protowire.AppendTag(body, 2, protowire.BytesType)
	body = protowire.AppendBytes(body, key(t).Serialize())
	body = protowire.AppendTag(body, 3, protowire.BytesType)
	body = protowire.AppendBytes(body, key(t).Serialize())
	body = protowire.AppendTag(body, 4, protowire.BytesType)
	body = protowire.AppendBytes(body, inner.Serialize())
	_, err = wire.ParsePreKeySignalMessage(body)
	require.ErrorIs(t, err, wire.ErrInvalidMessage)

	_, err = wire.ParsePreKeySignalMessage(nil)
	require.ErrorIs(t, err, wire.ErrInvalidMessage)
}

func TestParse_DispatchesOnType(t *testing.T) {
	inner, _, _, _ := newSignal(t)
	pk := wire.NewPreKeySignalMessage(3, 1, nil, 2, key(t), key(t), inner)

	got, err := wire.Parse(types.WhisperMessageType, inner.Serialize())
	require.NoError(t, err)
	require.IsType(t, &wire.SignalMessage{}, got)

	got, err = wire.Parse(types.PreKeyMessageType, pk.Serialize())
	require.NoError(t, err)
	require.IsType(t, &wire.PreKeySignalMessage{}, got)

	_, err = wire.Parse(9, nil)
	require.ErrorIs(t, err, wire.ErrInvalidMessage)
}
