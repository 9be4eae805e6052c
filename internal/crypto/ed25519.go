package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"axolotl/internal/domain/types"
)

// GenerateEd25519 returns a new Ed25519 signing key pair.
func GenerateEd25519() (priv types.Ed25519Private, pub types.Ed25519Public, err error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return priv, pub, err
	}
	copy(priv[:], sk)
	copy(pub[:], pk)
	return priv, pub, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv types.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub types.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}

// SignPreKey signs the serialized form of a signed pre-key.
func SignPreKey(priv types.Ed25519Private, preKey types.X25519Public) []byte {
	return SignEd25519(priv, preKey.Serialize())
}

// VerifyPreKey checks a signed pre-key signature against the signer's key.
func VerifyPreKey(pub types.Ed25519Public, preKey types.X25519Public, sig []byte) bool {
	return VerifyEd25519(pub, preKey.Serialize(), sig)
}
