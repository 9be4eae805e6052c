package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"axolotl/internal/domain/types"
)

const (
	fieldPreKeyID       protowire.Number = 1
	fieldBaseKey        protowire.Number = 2
	fieldIdentityKey    protowire.Number = 3
	fieldMessage        protowire.Number = 4
	fieldRegistrationID protowire.Number = 5
	fieldSignedPreKeyID protowire.Number = 6
)

// PreKeySignalMessage is the initial message of a session. It carries the
// initiator's key agreement inputs and wraps an ordinary SignalMessage.
type PreKeySignalMessage struct {
	version        int
	registrationID types.RegistrationID
	preKeyID       *types.PreKeyID
	signedPreKeyID types.SignedPreKeyID
	baseKey        types.X25519Public
	identityKey    types.X25519Public
	message        *SignalMessage
	serialized     []byte
}

// NewPreKeySignalMessage wraps msg. preKeyID is nil when no one-time
// prekey was used.
func NewPreKeySignalMessage(
	version int,
	registrationID types.RegistrationID,
	preKeyID *types.PreKeyID,
	signedPreKeyID types.SignedPreKeyID,
	baseKey, identityKey types.X25519Public,
	msg *SignalMessage,
) *PreKeySignalMessage {
	b := []byte{versionByte(version)}
	if preKeyID != nil {
		b = appendUintField(b, fieldPreKeyID, uint32(*preKeyID))
	}
	b = appendBytesField(b, fieldBaseKey, baseKey.Serialize())
	b = appendBytesField(b, fieldIdentityKey, identityKey.Serialize())
	b = appendBytesField(b, fieldMessage, msg.Serialize())
	b = appendUintField(b, fieldRegistrationID, uint32(registrationID))
	b = appendUintField(b, fieldSignedPreKeyID, uint32(signedPreKeyID))

	m := &PreKeySignalMessage{
		version:        version,
		registrationID: registrationID,
		signedPreKeyID: signedPreKeyID,
		baseKey:        baseKey,
		identityKey:    identityKey,
		message:        msg,
		serialized:     b,
	}
	if preKeyID != nil {
		id := *preKeyID
		m.preKeyID = &id
	}
	return m
}

// ParsePreKeySignalMessage decodes b, including the embedded message.
func ParsePreKeySignalMessage(b []byte) (*PreKeySignalMessage, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("%w: empty prekey message", ErrInvalidMessage)
	}
	version, err := checkVersion(b[0])
	if err != nil {
		return nil, err
	}

	var (
		baseKey, identityKey, inner []byte
		preKeyID, regID, spkID      *uint32
	)
	err = walkFields(b[1:], func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		switch num {
		case fieldPreKeyID:
			return consumeUint32(typ, v, &preKeyID)
		case fieldBaseKey:
			return consumeBytes(typ, v, &baseKey)
		case fieldIdentityKey:
			return consumeBytes(typ, v, &identityKey)
		case fieldMessage:
			return consumeBytes(typ, v, &inner)
		case fieldRegistrationID:
			return consumeUint32(typ, v, &regID)
		case fieldSignedPreKeyID:
			return consumeUint32(typ, v, &spkID)
		}
		return 0, false
	})
	if err != nil {
		return nil, err
	}
	if spkID == nil || baseKey == nil || identityKey == nil || inner == nil {
		return nil, fmt.Errorf("%w: incomplete prekey message", ErrInvalidMessage)
	}

	m := &PreKeySignalMessage{
		version:        version,
		signedPreKeyID: types.SignedPreKeyID(*spkID),
		serialized:     append([]byte(nil), b...),
	}
	if m.baseKey, err = decodeKey(baseKey); err != nil {
		return nil, err
	}
	if m.identityKey, err = decodeKey(identityKey); err != nil {
		return nil, err
	}
	if m.message, err = ParseSignalMessage(inner); err != nil {
		return nil, err
	}
	if regID != nil {
		m.registrationID = types.RegistrationID(*regID)
	}
	if preKeyID != nil {
		id := types.PreKeyID(*preKeyID)
		m.preKeyID = &id
	}
	return m, nil
}

func (m *PreKeySignalMessage) Serialize() []byte       { return m.serialized }
func (m *PreKeySignalMessage) Type() types.MessageType { return types.PreKeyMessageType }
func (m *PreKeySignalMessage) Version() int            { return m.version }

func (m *PreKeySignalMessage) RegistrationID() types.RegistrationID { return m.registrationID }
func (m *PreKeySignalMessage) SignedPreKeyID() types.SignedPreKeyID { return m.signedPreKeyID }
func (m *PreKeySignalMessage) BaseKey() types.X25519Public          { return m.baseKey }
func (m *PreKeySignalMessage) IdentityKey() types.X25519Public      { return m.identityKey }
func (m *PreKeySignalMessage) Message() *SignalMessage              { return m.message }

// PreKeyID returns the one-time prekey id, if one was used.
func (m *PreKeySignalMessage) PreKeyID() (types.PreKeyID, bool) {
	if m.preKeyID == nil {
		return 0, false
	}
	return *m.preKeyID, true
}
