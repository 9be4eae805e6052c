package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"axolotl/internal/crypto"
	"axolotl/internal/domain/types"
)

const (
	// CurrentVersion is the message version this package writes.
	CurrentVersion = 3
	// MinimumSupportedVersion is the oldest version it reads.
	MinimumSupportedVersion = 3
	// MacLength is the truncated HMAC-SHA256 length on SignalMessage.
	MacLength = 8
)

var (
	ErrInvalidMessage      = errors.New("invalid message")
	ErrUnrecognizedVersion = errors.New("unrecognized message version")
	ErrLegacyVersion       = errors.New("legacy message version")
)

// CiphertextMessage is either a SignalMessage or a PreKeySignalMessage.
type CiphertextMessage interface {
	Serialize() []byte
	Type() types.MessageType
}

var (
	_ CiphertextMessage = (*SignalMessage)(nil)
	_ CiphertextMessage = (*PreKeySignalMessage)(nil)
)

// Parse decodes body according to typ.
func Parse(typ types.MessageType, body []byte) (CiphertextMessage, error) {
	switch typ {
	case types.WhisperMessageType:
		return ParseSignalMessage(body)
	case types.PreKeyMessageType:
		return ParsePreKeySignalMessage(body)
	default:
		return nil, fmt.Errorf("%w: unknown type %d", ErrInvalidMessage, typ)
	}
}

func versionByte(version int) byte {
	return byte(version<<4 | CurrentVersion)
}

// checkVersion validates the high nibble of b.
func checkVersion(b byte) (int, error) {
	v := int(b >> 4)
	switch {
	case v < MinimumSupportedVersion:
		return v, fmt.Errorf("%w: %d", ErrLegacyVersion, v)
	case v > CurrentVersion:
		return v, fmt.Errorf("%w: %d", ErrUnrecognizedVersion, v)
	}
	return v, nil
}

func decodeKey(b []byte) (types.X25519Public, error) {
	k, err := crypto.DecodePoint(b)
	if err != nil {
		return types.X25519Public{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return k, nil
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendUintField(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

// fieldFunc handles one decoded field. Unknown fields are skipped by
// walkFields and never reach it.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, bool)

// walkFields iterates the protobuf fields in b, handing each to fn. fn
// returns how many bytes it consumed and whether it claimed the field.
func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, protowire.ParseError(n))
		}
		b = b[n:]
		m, ok := fn(num, typ, b)
		if !ok {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func consumeBytes(typ protowire.Type, b []byte, dst *[]byte) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	v, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		// Non-nil even when empty: presence is what callers check.
		*dst = append(make([]byte, 0, len(v)), v...)
	}
	return n, true
}

func consumeUint32(typ protowire.Type, b []byte, dst **uint32) (int, bool) {
	if typ != protowire.VarintType {
		return 0, false
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		u := uint32(v)
		*dst = &u
	}
	return n, true
}
