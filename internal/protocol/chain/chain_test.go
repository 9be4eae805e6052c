package chain_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/crypto"
	"axolotl/internal/protocol/chain"
	"axolotl/internal/protocol/kdf"
)

func TestChainKey_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x11}, 32)
	a := chain.NewChainKey(kdf.V3(), seed, 0)
	b := chain.NewChainKey(kdf.V3(), seed, 0)

	for i := 0; i < 5; i++ {
		require.Equal(t, a.MessageKeys(), b.MessageKeys())
		a, b = a.Next(), b.Next()
	}
	require.Equal(t, uint32(5), a.Index())
	require.Equal(t, a.Key(), b.Key())
}

func TestChainKey_StepsDiffer(t *testing.T) {
	ck := chain.NewChainKey(kdf.V3(), bytes.Repeat([]byte{0x22}, 32), 7)
	next := ck.Next()

	require.NotEqual(t, ck.Key(), next.Key())
	require.Equal(t, uint32(8), next.Index())

	mk := ck.MessageKeys()
	require.Equal(t, uint32(7), mk.Index)
	require.NotEqual(t, mk.CipherKey, mk.MacKey)
	require.NotEqual(t, mk, next.MessageKeys())
}

func TestChainKey_NextLeavesReceiverUntouched(t *testing.T) {
	ck := chain.NewChainKey(kdf.V3(), bytes.Repeat([]byte{0x33}, 32), 0)
	before := ck.Key()
	_ = ck.Next()
	require.Equal(t, before, ck.Key())
}

func TestRootKey_CreateChainAgrees(t *testing.T) {
	h := kdf.V3()
	root := chain.NewRootKey(h, bytes.Repeat([]byte{0x44}, 32))

	alice, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bob, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	rA, cA, err := root.CreateChain(bob.Public, alice)
	require.NoError(t, err)
	rB, cB, err := root.CreateChain(alice.Public, bob)
	require.NoError(t, err)

	require.Equal(t, rA.Bytes(), rB.Bytes())
	require.Equal(t, cA.Key(), cB.Key())
	require.Zero(t, cA.Index())
	require.NotEqual(t, root.Bytes(), rA.Bytes())
}

func TestDeriveInitial_Splits(t *testing.T) {
	secret := bytes.Repeat([]byte{0x55}, 128)
	r1, c1 := chain.DeriveInitial(kdf.V3(), secret)
	r2, c2 := chain.DeriveInitial(kdf.V3(), secret)

	require.Equal(t, r1.Bytes(), r2.Bytes())
	require.Equal(t, c1.Key(), c2.Key())
	require.NotEqual(t, r1.Bytes(), c1.Key())
}
