package memzero_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/util/memzero"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	memzero.Zero(b)
	require.Equal(t, []byte{0, 0, 0, 0}, b)

	memzero.Zero(nil)
}

func TestAll(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	iv := []byte{9, 9}

	memzero.All(key[:], iv, nil)

	require.Equal(t, [32]byte{}, key)
	require.Equal(t, []byte{0, 0}, iv)
}
