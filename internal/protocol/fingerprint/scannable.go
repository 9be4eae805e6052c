package fingerprint

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"axolotl/internal/domain/types"
)

var (
	ErrVersionMismatch    = errors.New("fingerprint version mismatch")
	ErrIdentifierMismatch = errors.New("fingerprint identifier mismatch")
	ErrParsing            = errors.New("fingerprint parse error")
)

// IdentifierMismatchError reports that a scanned payload was made for
// different parties. It matches ErrIdentifierMismatch under errors.Is.
type IdentifierMismatchError struct {
	Local, Remote               string
	ScannedLocal, ScannedRemote string
}

func (e *IdentifierMismatchError) Error() string {
	return fmt.Sprintf("%s: have %s/%s, scanned %s/%s",
		ErrIdentifierMismatch, e.Local, e.Remote, e.ScannedLocal, e.ScannedRemote)
}

func (e *IdentifierMismatchError) Is(target error) bool { return target == ErrIdentifierMismatch }

const (
	fieldVersion protowire.Number = 1
	fieldLocal   protowire.Number = 2
	fieldRemote  protowire.Number = 3

	fieldPublicKey  protowire.Number = 1
	fieldIdentifier protowire.Number = 2
)

type fingerprintData struct {
	publicKey  []byte
	identifier []byte
}

func (d fingerprintData) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldPublicKey, protowire.BytesType)
	b = protowire.AppendBytes(b, d.publicKey)
	b = protowire.AppendTag(b, fieldIdentifier, protowire.BytesType)
	return protowire.AppendBytes(b, d.identifier)
}

// Scannable is the payload shown as a QR code.
type Scannable struct {
	version uint32
	local   fingerprintData
	remote  fingerprintData
}

// NewScannable binds both identifiers to their identity keys.
func NewScannable(version uint32, localID string, localKey types.X25519Public, remoteID string, remoteKey types.X25519Public) *Scannable {
	return &Scannable{
		version: version,
		local:   fingerprintData{publicKey: localKey.Serialize(), identifier: []byte(localID)},
		remote:  fingerprintData{publicKey: remoteKey.Serialize(), identifier: []byte(remoteID)},
	}
}

// Serialize returns the bytes to encode in the QR code.
func (s *Scannable) Serialize() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.version))
	b = protowire.AppendTag(b, fieldLocal, protowire.BytesType)
	b = protowire.AppendBytes(b, s.local.marshal())
	b = protowire.AppendTag(b, fieldRemote, protowire.BytesType)
	return protowire.AppendBytes(b, s.remote.marshal())
}

// Compare checks a payload scanned from the peer's screen. The peer's local
// side must match our remote side and vice versa.
func (s *Scannable) Compare(scanned []byte) (bool, error) {
	version, local, remote, err := parseCombined(scanned)
	if err != nil {
		return false, err
	}
	if version == nil || local == nil || remote == nil || *version != s.version {
		return false, ErrVersionMismatch
	}
	if !bytes.Equal(s.local.identifier, remote.identifier) || !bytes.Equal(s.remote.identifier, local.identifier) {
		return false, &IdentifierMismatchError{
			Local:         string(s.local.identifier),
			Remote:        string(s.remote.identifier),
			ScannedLocal:  string(local.identifier),
			ScannedRemote: string(remote.identifier),
		}
	}

	a := subtle.ConstantTimeCompare(s.local.marshal(), remote.marshal())
	b := subtle.ConstantTimeCompare(s.remote.marshal(), local.marshal())
	return a&b == 1, nil
}

func parseCombined(b []byte) (version *uint32, local, remote *fingerprintData, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, nil, nil, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, nil, nil, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(m))
			}
			u := uint32(v)
			version = &u
			n = m
		case (num == fieldLocal || num == fieldRemote) && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, nil, nil, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(m))
			}
			d, perr := parseData(v)
			if perr != nil {
				return nil, nil, nil, perr
			}
			if num == fieldLocal {
				local = &d
			} else {
				remote = &d
			}
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, nil, nil, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return version, local, remote, nil
}

func parseData(b []byte) (fingerprintData, error) {
	var d fingerprintData
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return d, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(n))
		}
		b = b[n:]
		if typ == protowire.BytesType && (num == fieldPublicKey || num == fieldIdentifier) {
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return d, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(m))
			}
			if num == fieldPublicKey {
				d.publicKey = append([]byte(nil), v...)
			} else {
				d.identifier = append([]byte(nil), v...)
			}
			n = m
		} else {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return d, fmt.Errorf("%w: %w", ErrParsing, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return d, nil
}
