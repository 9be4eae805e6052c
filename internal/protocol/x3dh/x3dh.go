package x3dh

import (
	"bytes"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/util/memzero"
)

// discontinuity is prepended to the transcript.
var discontinuity = bytes.Repeat([]byte{0xFF}, 32)

// AliceSecret returns the initiator's agreement secret. theirOneTimePreKey is
// nil when the bundle carried none.
func AliceSecret(
	ourIdentity types.X25519Private,
	ourBase types.X25519Private,
	theirIdentity types.X25519Public,
	theirSignedPreKey types.X25519Public,
	theirOneTimePreKey *types.X25519Public,
) ([]byte, error) {
	t := newTranscript()
	if err := t.mix(ourIdentity, theirSignedPreKey); err != nil { // DH(IKa, SPKb)
		return nil, t.fail(err)
	}
	if err := t.mix(ourBase, theirIdentity); err != nil { // DH(EKa, IKb)
		return nil, t.fail(err)
	}
	if err := t.mix(ourBase, theirSignedPreKey); err != nil { // DH(EKa, SPKb)
		return nil, t.fail(err)
	}
	if theirOneTimePreKey != nil {
		if err := t.mix(ourBase, *theirOneTimePreKey); err != nil { // DH(EKa, OPKb)
			return nil, t.fail(err)
		}
	}
	return t.buf, nil
}

// BobSecret returns the responder's agreement secret. It equals AliceSecret
// for matching inputs.
func BobSecret(
	ourIdentity types.X25519Private,
	ourSignedPreKey types.X25519Private,
	ourOneTimePreKey *types.X25519Private,
	theirIdentity types.X25519Public,
	theirBase types.X25519Public,
) ([]byte, error) {
	t := newTranscript()
	if err := t.mix(ourSignedPreKey, theirIdentity); err != nil {
		return nil, t.fail(err)
	}
	if err := t.mix(ourIdentity, theirBase); err != nil {
		return nil, t.fail(err)
	}
	if err := t.mix(ourSignedPreKey, theirBase); err != nil {
		return nil, t.fail(err)
	}
	if ourOneTimePreKey != nil {
		if err := t.mix(*ourOneTimePreKey, theirBase); err != nil {
			return nil, t.fail(err)
		}
	}
	return t.buf, nil
}

type transcript struct {
	buf []byte
}

func newTranscript() *transcript {
	buf := make([]byte, 0, 32*5)
	return &transcript{buf: append(buf, discontinuity...)}
}

func (t *transcript) mix(priv types.X25519Private, pub types.X25519Public) error {
	shared, err := crypto.DH(priv, pub)
	if err != nil {
		return err
	}
	t.buf = append(t.buf, shared[:]...)
	memzero.Zero(shared[:])
	return nil
}

func (t *transcript) fail(err error) error {
	memzero.Zero(t.buf)
	return err
}
