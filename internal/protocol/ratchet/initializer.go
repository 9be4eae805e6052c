package ratchet

import (
	"bytes"
	"fmt"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/chain"
	"axolotl/internal/protocol/kdf"
	"axolotl/internal/protocol/session"
	"axolotl/internal/protocol/x3dh"
	"axolotl/internal/util/memzero"
)

// AliceParameters are the initiator's inputs.
type AliceParameters struct {
	OurIdentity        types.KeyPair
	OurBaseKey         types.KeyPair
	TheirIdentity      types.X25519Public
	TheirSignedPreKey  types.X25519Public
	TheirOneTimePreKey *types.X25519Public
	TheirRatchetKey    types.X25519Public
}

// BobParameters are the responder's inputs.
type BobParameters struct {
	OurIdentity      types.KeyPair
	OurSignedPreKey  types.KeyPair
	OurOneTimePreKey *types.KeyPair
	OurRatchetKey    types.KeyPair
	TheirIdentity    types.X25519Public
	TheirBaseKey     types.X25519Public
}

// SymmetricParameters are used when both sides exchange keys at once and
// neither holds a prekey bundle.
type SymmetricParameters struct {
	OurBaseKey      types.KeyPair
	OurRatchetKey   types.KeyPair
	OurIdentity     types.KeyPair
	TheirBaseKey    types.X25519Public
	TheirRatchetKey types.X25519Public
	TheirIdentity   types.X25519Public
}

// IsAlice reports whether the side owning ourBase takes the initiator role.
func IsAlice(ourBase, theirBase types.X25519Public) bool {
	return bytes.Compare(ourBase[:], theirBase[:]) < 0
}

// Initialize picks a role from the base keys and initialises st.
func Initialize(st *session.State, p SymmetricParameters) error {
	if IsAlice(p.OurBaseKey.Public, p.TheirBaseKey) {
		return InitializeAlice(st, AliceParameters{
			OurIdentity:       p.OurIdentity,
			OurBaseKey:        p.OurBaseKey,
			TheirIdentity:     p.TheirIdentity,
			TheirSignedPreKey: p.TheirBaseKey,
			TheirRatchetKey:   p.TheirRatchetKey,
		})
	}
	return InitializeBob(st, BobParameters{
		OurIdentity:     p.OurIdentity,
		OurSignedPreKey: p.OurBaseKey,
		OurRatchetKey:   p.OurRatchetKey,
		TheirIdentity:   p.TheirIdentity,
		TheirBaseKey:    p.TheirBaseKey,
	})
}

// InitializeAlice sets up st for the initiator. The resulting state holds a
// receiver chain for their ratchet key and a fresh sender chain.
func InitializeAlice(st *session.State, p AliceParameters) error {
	sending, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate ratchet key: %w", err)
	}

	secret, err := x3dh.AliceSecret(p.OurIdentity.Private, p.OurBaseKey.Private, p.TheirIdentity, p.TheirSignedPreKey, p.TheirOneTimePreKey)
	if err != nil {
		return fmt.Errorf("alice agreement: %w", err)
	}
	root, ck := chain.DeriveInitial(kdf.V3(), secret)
	memzero.Zero(secret)

	nextRoot, sendChain, err := root.CreateChain(p.TheirRatchetKey, sending)
	root.Wipe()
	if err != nil {
		return err
	}

	st.SetVersion(kdf.Version)
	st.SetRemoteIdentity(p.TheirIdentity)
	st.SetLocalIdentity(p.OurIdentity.Public)
	st.AddReceiverChain(p.TheirRatchetKey, ck)
	st.SetSenderChain(sending, sendChain)
	st.SetRootKey(nextRoot)
	return nil
}

// InitializeBob sets up st for the responder. The sender chain runs on
// OurRatchetKey until the first message from Alice triggers a ratchet step.
func InitializeBob(st *session.State, p BobParameters) error {
	var oneTime *types.X25519Private
	if p.OurOneTimePreKey != nil {
		oneTime = &p.OurOneTimePreKey.Private
	}
	secret, err := x3dh.BobSecret(p.OurIdentity.Private, p.OurSignedPreKey.Private, oneTime, p.TheirIdentity, p.TheirBaseKey)
	if err != nil {
		return fmt.Errorf("bob agreement: %w", err)
	}
	root, ck := chain.DeriveInitial(kdf.V3(), secret)
	memzero.Zero(secret)

	st.SetVersion(kdf.Version)
	st.SetRemoteIdentity(p.TheirIdentity)
	st.SetLocalIdentity(p.OurIdentity.Public)
	st.SetSenderChain(p.OurRatchetKey, ck)
	st.SetRootKey(root)
	return nil
}
