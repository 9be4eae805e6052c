package ratchet

import (
	"errors"
	"fmt"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/chain"
	"axolotl/internal/protocol/session"
	"axolotl/internal/protocol/wire"
)

// ErrNoSession is returned when a state has no sending chain.
var ErrNoSession = errors.New("no session")

// Encrypt seals plaintext under the next sending key. While the state holds
// a pending prekey the result is a PreKeySignalMessage.
func Encrypt(st *session.State, plaintext []byte) (wire.CiphertextMessage, error) {
	if !st.HasSenderChain() {
		return nil, ErrNoSession
	}
	ck := st.SenderChainKey()
	mk := ck.MessageKeys()
	defer mk.Wipe()

	ct, err := crypto.EncryptCBC(mk.CipherKey, mk.IV, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	msg := wire.NewSignalMessage(
		st.Version(), mk.MacKey,
		st.SenderRatchetKey(), mk.Index, st.PreviousCounter(),
		ct, st.LocalIdentity(), st.RemoteIdentity(),
	)

	var out wire.CiphertextMessage = msg
	if p, ok := st.PendingPreKey(); ok {
		out = wire.NewPreKeySignalMessage(
			st.Version(), st.LocalRegistrationID(),
			p.PreKeyID, p.SignedPreKeyID, p.BaseKey,
			st.LocalIdentity(), msg,
		)
	}

	st.SetSenderChainKey(ck.Next())
	return out, nil
}

// Decrypt opens msg against st. st is modified only when decryption
// succeeds; a rejected message leaves it exactly as it was.
func Decrypt(st *session.State, msg *wire.SignalMessage) ([]byte, error) {
	if !st.HasSenderChain() {
		return nil, ErrNoSession
	}
	if msg.Version() != st.Version() {
		return nil, fmt.Errorf("%w: message version %d, session version %d", wire.ErrInvalidMessage, msg.Version(), st.Version())
	}

	work := st.Clone()
	pt, err := decrypt(work, msg)
	if err != nil {
		return nil, err
	}
	st.Replace(work)
	return pt, nil
}

// DecryptRecord tries the live state and then each archived state. A state
// that succeeds is promoted to live.
func DecryptRecord(rec *session.Record, msg *wire.SignalMessage) ([]byte, error) {
	pt, err := Decrypt(rec.State(), msg)
	if err == nil || errors.Is(err, session.ErrDuplicateMessage) {
		return pt, err
	}

	for i, prev := range rec.PreviousStates() {
		p, perr := Decrypt(prev, msg)
		if perr != nil {
			continue
		}
		rec.RestoreArchived(i, prev)
		return p, nil
	}
	return nil, err
}

func decrypt(st *session.State, msg *wire.SignalMessage) ([]byte, error) {
	their := msg.SenderRatchetKey()

	ck, err := receiverChainKey(st, their)
	if err != nil {
		return nil, err
	}
	mk, err := messageKeys(st, their, ck, msg.Counter())
	if err != nil {
		return nil, err
	}
	defer mk.Wipe()

	if !msg.VerifyMAC(st.RemoteIdentity(), st.LocalIdentity(), mk.MacKey) {
		return nil, fmt.Errorf("%w: bad mac", wire.ErrInvalidMessage)
	}
	pt, err := crypto.DecryptCBC(mk.CipherKey, mk.IV, msg.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wire.ErrInvalidMessage, err)
	}

	st.ClearPendingPreKey()
	return pt, nil
}

// receiverChainKey returns the chain for their ratchet key, stepping the DH
// ratchet when the key is new.
func receiverChainKey(st *session.State, their types.X25519Public) (chain.ChainKey, error) {
	if ck, ok := st.ReceiverChainKey(their); ok {
		return ck, nil
	}

	root := st.RootKey()
	recvRoot, recvChain, err := root.CreateChain(their, st.SenderRatchetKeyPair())
	if err != nil {
		return chain.ChainKey{}, err
	}
	defer recvRoot.Wipe()

	ours, err := crypto.GenerateKeyPair()
	if err != nil {
		return chain.ChainKey{}, fmt.Errorf("generate ratchet key: %w", err)
	}
	sendRoot, sendChain, err := recvRoot.CreateChain(their, ours)
	if err != nil {
		return chain.ChainKey{}, err
	}

	var prev uint32
	if idx := st.SenderChainKey().Index(); idx > 0 {
		prev = idx - 1
	}

	st.SetRootKey(sendRoot)
	st.AddReceiverChain(their, recvChain)
	st.SetPreviousCounter(prev)
	st.SetSenderChain(ours, sendChain)
	return recvChain, nil
}

// messageKeys returns the keys for counter on their chain. Keys for any
// skipped counters are cached; a counter already consumed can only be served
// from that cache.
func messageKeys(st *session.State, their types.X25519Public, ck chain.ChainKey, counter uint32) (chain.MessageKeys, error) {
	if ck.Index() > counter {
		if mk, ok := st.RemoveMessageKeys(their, counter); ok {
			return mk, nil
		}
		return chain.MessageKeys{}, fmt.Errorf("%w: counter %d, chain at %d", session.ErrDuplicateMessage, counter, ck.Index())
	}

	if gap := counter - ck.Index(); gap > uint32(st.Limits().MaxFutureMessages) {
		return chain.MessageKeys{}, fmt.Errorf("%w: gap %d", session.ErrTooFarInFuture, gap)
	}

	for ck.Index() < counter {
		st.SetMessageKeys(their, ck.MessageKeys())
		ck = ck.Next()
	}
	st.SetReceiverChainKey(their, ck.Next())
	return ck.MessageKeys(), nil
}
