package session

import (
	"fmt"

	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/chain"
	"axolotl/internal/protocol/kdf"
)

type recordDTO struct {
	Current  stateDTO   `cbor:"1,keyasint"`
	Previous []stateDTO `cbor:"2,keyasint,omitempty"`
	Fresh    bool       `cbor:"3,keyasint,omitempty"`
}

type chainKeyDTO struct {
	Key   []byte `cbor:"1,keyasint"`
	Index uint32 `cbor:"2,keyasint"`
}

type messageKeysDTO struct {
	CipherKey []byte `cbor:"1,keyasint"`
	MacKey    []byte `cbor:"2,keyasint"`
	IV        []byte `cbor:"3,keyasint"`
	Index     uint32 `cbor:"4,keyasint"`
}

type senderDTO struct {
	Public  []byte      `cbor:"1,keyasint"`
	Private []byte      `cbor:"2,keyasint"`
	Chain   chainKeyDTO `cbor:"3,keyasint"`
}

type receiverDTO struct {
	RatchetKey  []byte           `cbor:"1,keyasint"`
	Chain       chainKeyDTO      `cbor:"2,keyasint"`
	MessageKeys []messageKeysDTO `cbor:"3,keyasint,omitempty"`
}

type pendingDTO struct {
	PreKeyID       *uint32 `cbor:"1,keyasint,omitempty"`
	SignedPreKeyID uint32  `cbor:"2,keyasint"`
	BaseKey        []byte  `cbor:"3,keyasint"`
}

type stateDTO struct {
	Version         int           `cbor:"1,keyasint"`
	LocalIdentity   []byte        `cbor:"2,keyasint,omitempty"`
	RemoteIdentity  []byte        `cbor:"3,keyasint,omitempty"`
	RootKey         []byte        `cbor:"4,keyasint,omitempty"`
	PreviousCounter uint32        `cbor:"5,keyasint"`
	Sender          *senderDTO    `cbor:"6,keyasint,omitempty"`
	Receivers       []receiverDTO `cbor:"7,keyasint,omitempty"`
	Pending         *pendingDTO   `cbor:"8,keyasint,omitempty"`
	LocalRegID      uint32        `cbor:"9,keyasint"`
	RemoteRegID     uint32        `cbor:"10,keyasint"`
	AliceBaseKey    []byte        `cbor:"11,keyasint,omitempty"`
}

func stateToDTO(s *State) stateDTO {
	d := stateDTO{
		Version:         s.version,
		LocalIdentity:   s.localIdentity.Slice(),
		RemoteIdentity:  s.remoteIdentity.Slice(),
		RootKey:         s.rootKey.Bytes(),
		PreviousCounter: s.previousCounter,
		LocalRegID:      uint32(s.localRegID),
		RemoteRegID:     uint32(s.remoteRegID),
		AliceBaseKey:    s.aliceBaseKey.Slice(),
	}
	if s.sender != nil {
		d.Sender = &senderDTO{
			Public:  s.sender.RatchetKey.Public.Slice(),
			Private: s.sender.RatchetKey.Private.Slice(),
			Chain:   chainKeyDTO{Key: s.sender.ChainKey.Key(), Index: s.sender.ChainKey.Index()},
		}
	}
	for _, rc := range s.receivers {
		rd := receiverDTO{
			RatchetKey: rc.SenderRatchetKey.Slice(),
			Chain:      chainKeyDTO{Key: rc.ChainKey.Key(), Index: rc.ChainKey.Index()},
		}
		for _, mk := range rc.MessageKeys {
			rd.MessageKeys = append(rd.MessageKeys, messageKeysDTO{
				CipherKey: append([]byte(nil), mk.CipherKey[:]...),
				MacKey:    append([]byte(nil), mk.MacKey[:]...),
				IV:        append([]byte(nil), mk.IV[:]...),
				Index:     mk.Index,
			})
		}
		d.Receivers = append(d.Receivers, rd)
	}
	if s.pending != nil {
		p := &pendingDTO{
			SignedPreKeyID: uint32(s.pending.SignedPreKeyID),
			BaseKey:        s.pending.BaseKey.Slice(),
		}
		if s.pending.PreKeyID != nil {
			id := uint32(*s.pending.PreKeyID)
			p.PreKeyID = &id
		}
		d.Pending = p
	}
	return d
}

func (d stateDTO) toState() (*State, error) {
	s := NewState(DefaultLimits())
	s.version = d.Version
	s.previousCounter = d.PreviousCounter
	s.localRegID = types.RegistrationID(d.LocalRegID)
	s.remoteRegID = types.RegistrationID(d.RemoteRegID)

	// A fresh state carries no key material, so empty fields are allowed.
	if err := copy32(s.localIdentity[:], d.LocalIdentity, "local identity"); err != nil {
		return nil, err
	}
	if err := copy32(s.remoteIdentity[:], d.RemoteIdentity, "remote identity"); err != nil {
		return nil, err
	}
	if err := copy32(s.aliceBaseKey[:], d.AliceBaseKey, "alice base key"); err != nil {
		return nil, err
	}

	h := kdf.V3()
	if len(d.RootKey) > 0 {
		if len(d.RootKey) != 32 {
			return nil, fmt.Errorf("decode session state: root key length %d", len(d.RootKey))
		}
		s.rootKey = chain.NewRootKey(h, d.RootKey)
	}

	if d.Sender != nil {
		var pair types.KeyPair
		if err := copy32(pair.Public[:], d.Sender.Public, "sender ratchet key"); err != nil {
			return nil, err
		}
		if err := copy32(pair.Private[:], d.Sender.Private, "sender ratchet key"); err != nil {
			return nil, err
		}
		s.sender = &SenderChain{RatchetKey: pair, ChainKey: chain.NewChainKey(h, d.Sender.Chain.Key, d.Sender.Chain.Index)}
	}

	for _, rd := range d.Receivers {
		rc := &ReceiverChain{ChainKey: chain.NewChainKey(h, rd.Chain.Key, rd.Chain.Index)}
		if err := copy32(rc.SenderRatchetKey[:], rd.RatchetKey, "receiver ratchet key"); err != nil {
			return nil, err
		}
		for _, md := range rd.MessageKeys {
			var mk chain.MessageKeys
			if len(md.CipherKey) != 32 || len(md.MacKey) != 32 || len(md.IV) != 16 {
				return nil, fmt.Errorf("decode session state: malformed message keys at %d", md.Index)
			}
			copy(mk.CipherKey[:], md.CipherKey)
			copy(mk.MacKey[:], md.MacKey)
			copy(mk.IV[:], md.IV)
			mk.Index = md.Index
			rc.MessageKeys = append(rc.MessageKeys, mk)
		}
		s.receivers = append(s.receivers, rc)
	}

	if d.Pending != nil {
		p := PendingPreKey{SignedPreKeyID: types.SignedPreKeyID(d.Pending.SignedPreKeyID)}
		if err := copy32(p.BaseKey[:], d.Pending.BaseKey, "pending base key"); err != nil {
			return nil, err
		}
		if d.Pending.PreKeyID != nil {
			id := types.PreKeyID(*d.Pending.PreKeyID)
			p.PreKeyID = &id
		}
		s.pending = &p
	}
	return s, nil
}

func copy32(dst, src []byte, what string) error {
	switch len(src) {
	case 0:
		return nil
	case 32:
		copy(dst, src)
		return nil
	default:
		return fmt.Errorf("decode session state: %s length %d", what, len(src))
	}
}
