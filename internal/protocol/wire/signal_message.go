package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"axolotl/internal/domain/types"
)

const (
	fieldRatchetKey      protowire.Number = 1
	fieldCounter         protowire.Number = 2
	fieldPreviousCounter protowire.Number = 3
	fieldCiphertext      protowire.Number = 4
)

// SignalMessage is a steady-state ratchet message.
type SignalMessage struct {
	version          int
	senderRatchetKey types.X25519Public
	counter          uint32
	previousCounter  uint32
	ciphertext       []byte
	serialized       []byte
}

// NewSignalMessage builds and MACs a message. senderIdentity and
// receiverIdentity bind the MAC to both parties.
func NewSignalMessage(
	version int,
	macKey [32]byte,
	senderRatchetKey types.X25519Public,
	counter, previousCounter uint32,
	ciphertext []byte,
	senderIdentity, receiverIdentity types.X25519Public,
) *SignalMessage {
	body := []byte{versionByte(version)}
	body = appendBytesField(body, fieldRatchetKey, senderRatchetKey.Serialize())
	body = appendUintField(body, fieldCounter, counter)
	body = appendUintField(body, fieldPreviousCounter, previousCounter)
	body = appendBytesField(body, fieldCiphertext, ciphertext)

	mac := computeMAC(macKey, senderIdentity, receiverIdentity, body)
	return &SignalMessage{
		version:          version,
		senderRatchetKey: senderRatchetKey,
		counter:          counter,
		previousCounter:  previousCounter,
		ciphertext:       append([]byte(nil), ciphertext...),
		serialized:       append(body, mac...),
	}
}

// ParseSignalMessage decodes b. The MAC is not checked; see VerifyMAC.
func ParseSignalMessage(b []byte) (*SignalMessage, error) {
	if len(b) < 1+MacLength {
		return nil, fmt.Errorf("%w: signal message too short", ErrInvalidMessage)
	}
	version, err := checkVersion(b[0])
	if err != nil {
		return nil, err
	}

	var (
		ratchetKey, ciphertext []byte
		counter, prevCounter   *uint32
	)
	err = walkFields(b[1:len(b)-MacLength], func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		switch num {
		case fieldRatchetKey:
			return consumeBytes(typ, v, &ratchetKey)
		case fieldCounter:
			return consumeUint32(typ, v, &counter)
		case fieldPreviousCounter:
			return consumeUint32(typ, v, &prevCounter)
		case fieldCiphertext:
			return consumeBytes(typ, v, &ciphertext)
		}
		return 0, false
	})
	if err != nil {
		return nil, err
	}
	if ratchetKey == nil || counter == nil || ciphertext == nil {
		return nil, fmt.Errorf("%w: incomplete signal message", ErrInvalidMessage)
	}
	key, err := decodeKey(ratchetKey)
	if err != nil {
		return nil, err
	}

	m := &SignalMessage{
		version:          version,
		senderRatchetKey: key,
		counter:          *counter,
		ciphertext:       ciphertext,
		serialized:       append([]byte(nil), b...),
	}
	if prevCounter != nil {
		m.previousCounter = *prevCounter
	}
	return m, nil
}

// VerifyMAC checks the trailing MAC in constant time.
func (m *SignalMessage) VerifyMAC(senderIdentity, receiverIdentity types.X25519Public, macKey [32]byte) bool {
	body := m.serialized[:len(m.serialized)-MacLength]
	want := computeMAC(macKey, senderIdentity, receiverIdentity, body)
	return hmac.Equal(want, m.serialized[len(m.serialized)-MacLength:])
}

func (m *SignalMessage) Serialize() []byte                    { return m.serialized }
func (m *SignalMessage) Type() types.MessageType              { return types.WhisperMessageType }
func (m *SignalMessage) Version() int                         { return m.version }
func (m *SignalMessage) SenderRatchetKey() types.X25519Public { return m.senderRatchetKey }
func (m *SignalMessage) Counter() uint32                      { return m.counter }
func (m *SignalMessage) PreviousCounter() uint32              { return m.previousCounter }
func (m *SignalMessage) Body() []byte                         { return m.ciphertext }

func computeMAC(macKey [32]byte, sender, receiver types.X25519Public, body []byte) []byte {
	h := hmac.New(sha256.New, macKey[:])
	h.Write(sender.Serialize())
	h.Write(receiver.Serialize())
	h.Write(body)
	return h.Sum(nil)[:MacLength]
}
