package x3dh_test

import (
	"bytes"
	"errors"
	"testing"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/x3dh"
)

// makeKeyPair returns a fresh X25519 pair.
func makeKeyPair(t *testing.T) types.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return kp
}

func TestAliceAndBobSecret_NoOneTimePreKey(t *testing.T) {
	// Alice is initiator, Bob is responder.
	aliceIdentity := makeKeyPair(t)
	aliceBase := makeKeyPair(t)
	bobIdentity := makeKeyPair(t)
	bobSignedPreKey := makeKeyPair(t)

	aliceSecret, err := x3dh.AliceSecret(aliceIdentity.Private, aliceBase.Private, bobIdentity.Public, bobSignedPreKey.Public, nil)
	if err != nil {
		t.Fatalf("AliceSecret: %v", err)
	}
	bobSecret, err := x3dh.BobSecret(bobIdentity.Private, bobSignedPreKey.Private, nil, aliceIdentity.Public, aliceBase.Public)
	if err != nil {
		t.Fatalf("BobSecret: %v", err)
	}
	if !bytes.Equal(aliceSecret, bobSecret) {
		t.Fatal("secrets differ (no OPK)")
	}
	if len(aliceSecret) != 32*4 {
		t.Fatalf("want %d bytes, got %d", 32*4, len(aliceSecret))
	}
	if !bytes.Equal(aliceSecret[:32], bytes.Repeat([]byte{0xFF}, 32)) {
		t.Fatal("missing discontinuity prefix")
	}
}

func TestAliceAndBobSecret_WithOneTimePreKey(t *testing.T) {
	aliceIdentity := makeKeyPair(t)
	aliceBase := makeKeyPair(t)
	bobIdentity := makeKeyPair(t)
	bobSignedPreKey := makeKeyPair(t)
	bobOneTimePreKey := makeKeyPair(t)

	aliceSecret, err := x3dh.AliceSecret(aliceIdentity.Private, aliceBase.Private, bobIdentity.Public, bobSignedPreKey.Public, &bobOneTimePreKey.Public)
	if err != nil {
		t.Fatalf("AliceSecret: %v", err)
	}
	bobSecret, err := x3dh.BobSecret(bobIdentity.Private, bobSignedPreKey.Private, &bobOneTimePreKey.Private, aliceIdentity.Public, aliceBase.Public)
	if err != nil {
		t.Fatalf("BobSecret: %v", err)
	}
	if !bytes.Equal(aliceSecret, bobSecret) {
		t.Fatal("secrets differ (with OPK)")
	}
	if len(aliceSecret) != 32*5 {
		t.Fatalf("want %d bytes, got %d", 32*5, len(aliceSecret))
	}
}

func TestAliceSecret_LowOrderKey(t *testing.T) {
	aliceIdentity := makeKeyPair(t)
	aliceBase := makeKeyPair(t)
	bobSignedPreKey := makeKeyPair(t)

	_, err := x3dh.AliceSecret(aliceIdentity.Private, aliceBase.Private, types.X25519Public{}, bobSignedPreKey.Public, nil)
	if !errors.Is(err, crypto.ErrInvalidKey) {
		t.Fatalf("want ErrInvalidKey, got %v", err)
	}
}
