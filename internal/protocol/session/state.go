package session

import (
	"axolotl/internal/domain/types"
	"axolotl/internal/protocol/chain"
	"axolotl/internal/util/memzero"
)

// SenderChain is our current ratchet key pair and the chain it drives.
type SenderChain struct {
	RatchetKey types.KeyPair
	ChainKey   chain.ChainKey
}

// ReceiverChain tracks one peer ratchet key. MessageKeys caches keys for
// counters that were skipped over, oldest first.
type ReceiverChain struct {
	SenderRatchetKey types.X25519Public
	ChainKey         chain.ChainKey
	MessageKeys      []chain.MessageKeys
}

// PendingPreKey is what an initiator must repeat on every outgoing message
// until the responder replies.
type PendingPreKey struct {
	PreKeyID       *types.PreKeyID
	SignedPreKeyID types.SignedPreKeyID
	BaseKey        types.X25519Public
}

// State is one ratchet session with one peer device.
type State struct {
	version         int
	localIdentity   types.X25519Public
	remoteIdentity  types.X25519Public
	rootKey         chain.RootKey
	previousCounter uint32
	sender          *SenderChain
	receivers       []*ReceiverChain
	pending         *PendingPreKey
	localRegID      types.RegistrationID
	remoteRegID     types.RegistrationID
	aliceBaseKey    types.X25519Public
	limits          Limits
}

// NewState returns an empty state. Zero fields in limits take defaults.
func NewState(limits Limits) *State {
	return &State{limits: limits.orDefault()}
}

func (s *State) Limits() Limits { return s.limits }

// SetLimits replaces the bounds. Existing caches shrink lazily on the next
// insert.
func (s *State) SetLimits(l Limits) { s.limits = l.orDefault() }

func (s *State) Version() int     { return s.version }
func (s *State) SetVersion(v int) { s.version = v }

func (s *State) LocalIdentity() types.X25519Public      { return s.localIdentity }
func (s *State) SetLocalIdentity(k types.X25519Public)  { s.localIdentity = k }
func (s *State) RemoteIdentity() types.X25519Public     { return s.remoteIdentity }
func (s *State) SetRemoteIdentity(k types.X25519Public) { s.remoteIdentity = k }

func (s *State) RootKey() chain.RootKey { return s.rootKey }

// SetRootKey replaces the root key and wipes the old one.
func (s *State) SetRootKey(r chain.RootKey) {
	s.rootKey.Wipe()
	s.rootKey = r
}

func (s *State) PreviousCounter() uint32     { return s.previousCounter }
func (s *State) SetPreviousCounter(n uint32) { s.previousCounter = n }

func (s *State) LocalRegistrationID() types.RegistrationID      { return s.localRegID }
func (s *State) SetLocalRegistrationID(id types.RegistrationID) { s.localRegID = id }
func (s *State) RemoteRegistrationID() types.RegistrationID     { return s.remoteRegID }
func (s *State) SetRemoteRegistrationID(id types.RegistrationID) {
	s.remoteRegID = id
}

func (s *State) AliceBaseKey() types.X25519Public     { return s.aliceBaseKey }
func (s *State) SetAliceBaseKey(k types.X25519Public) { s.aliceBaseKey = k }

// HasSenderChain reports whether the state can encrypt.
func (s *State) HasSenderChain() bool { return s.sender != nil }

// SenderRatchetKey is our current ratchet public key.
func (s *State) SenderRatchetKey() types.X25519Public {
	if s.sender == nil {
		return types.X25519Public{}
	}
	return s.sender.RatchetKey.Public
}

// SenderRatchetKeyPair is our current ratchet key pair.
func (s *State) SenderRatchetKeyPair() types.KeyPair {
	if s.sender == nil {
		return types.KeyPair{}
	}
	return s.sender.RatchetKey
}

// SenderChainKey is the next sending chain key.
func (s *State) SenderChainKey() chain.ChainKey {
	if s.sender == nil {
		return chain.ChainKey{}
	}
	return s.sender.ChainKey
}

// SetSenderChain installs a new sending ratchet. The previous chain key is
// wiped.
func (s *State) SetSenderChain(pair types.KeyPair, ck chain.ChainKey) {
	if s.sender != nil {
		s.sender.ChainKey.Wipe()
	}
	s.sender = &SenderChain{RatchetKey: pair, ChainKey: ck}
}

// SetSenderChainKey advances the sending chain in place.
func (s *State) SetSenderChainKey(ck chain.ChainKey) {
	if s.sender == nil {
		return
	}
	s.sender.ChainKey.Wipe()
	s.sender.ChainKey = ck
}

func (s *State) receiver(their types.X25519Public) *ReceiverChain {
	for _, rc := range s.receivers {
		if rc.SenderRatchetKey == their {
			return rc
		}
	}
	return nil
}

// HasReceiverChain reports whether their ratchet key is known.
func (s *State) HasReceiverChain(their types.X25519Public) bool {
	return s.receiver(their) != nil
}

// ReceiverChainKey returns the chain key for their ratchet key.
func (s *State) ReceiverChainKey(their types.X25519Public) (chain.ChainKey, bool) {
	rc := s.receiver(their)
	if rc == nil {
		return chain.ChainKey{}, false
	}
	return rc.ChainKey, true
}

// ReceiverChains returns the receiver chains, oldest first.
func (s *State) ReceiverChains() []*ReceiverChain { return s.receivers }

// AddReceiverChain appends a chain for their ratchet key, evicting the
// oldest beyond MaxReceiverChains.
func (s *State) AddReceiverChain(their types.X25519Public, ck chain.ChainKey) {
	s.receivers = append(s.receivers, &ReceiverChain{SenderRatchetKey: their, ChainKey: ck})
	for len(s.receivers) > s.limits.MaxReceiverChains {
		evicted := s.receivers[0]
		evicted.wipe()
		s.receivers[0] = nil
		s.receivers = s.receivers[1:]
	}
}

// SetReceiverChainKey advances the chain for their ratchet key.
func (s *State) SetReceiverChainKey(their types.X25519Public, ck chain.ChainKey) {
	rc := s.receiver(their)
	if rc == nil {
		return
	}
	rc.ChainKey.Wipe()
	rc.ChainKey = ck
}

// HasMessageKeys reports whether a skipped key for counter is cached.
func (s *State) HasMessageKeys(their types.X25519Public, counter uint32) bool {
	rc := s.receiver(their)
	if rc == nil {
		return false
	}
	for _, mk := range rc.MessageKeys {
		if mk.Index == counter {
			return true
		}
	}
	return false
}

// RemoveMessageKeys takes the cached key for counter out of the cache.
func (s *State) RemoveMessageKeys(their types.X25519Public, counter uint32) (chain.MessageKeys, bool) {
	rc := s.receiver(their)
	if rc == nil {
		return chain.MessageKeys{}, false
	}
	for i, mk := range rc.MessageKeys {
		if mk.Index == counter {
			rc.MessageKeys = append(rc.MessageKeys[:i], rc.MessageKeys[i+1:]...)
			return mk, true
		}
	}
	return chain.MessageKeys{}, false
}

// SetMessageKeys caches a skipped key, evicting the oldest beyond
// MaxMessageKeys.
func (s *State) SetMessageKeys(their types.X25519Public, mk chain.MessageKeys) {
	rc := s.receiver(their)
	if rc == nil {
		return
	}
	rc.MessageKeys = append(rc.MessageKeys, mk)
	for len(rc.MessageKeys) > s.limits.MaxMessageKeys {
		rc.MessageKeys[0].Wipe()
		rc.MessageKeys = rc.MessageKeys[1:]
	}
}

// SetPendingPreKey records the prekey material to resend.
func (s *State) SetPendingPreKey(p PendingPreKey) {
	if p.PreKeyID != nil {
		id := *p.PreKeyID
		p.PreKeyID = &id
	}
	s.pending = &p
}

// PendingPreKey returns the prekey material to resend, if any.
func (s *State) PendingPreKey() (PendingPreKey, bool) {
	if s.pending == nil {
		return PendingPreKey{}, false
	}
	return *s.pending, true
}

// HasPendingPreKey reports whether outgoing messages still need wrapping.
func (s *State) HasPendingPreKey() bool { return s.pending != nil }

// ClearPendingPreKey is called once the peer has replied.
func (s *State) ClearPendingPreKey() { s.pending = nil }

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	if s.sender != nil {
		sc := *s.sender
		c.sender = &sc
	}
	if s.receivers != nil {
		c.receivers = make([]*ReceiverChain, len(s.receivers))
		for i, rc := range s.receivers {
			cp := *rc
			cp.MessageKeys = append([]chain.MessageKeys(nil), rc.MessageKeys...)
			c.receivers[i] = &cp
		}
	}
	if s.pending != nil {
		c.pending = nil
		c.SetPendingPreKey(*s.pending)
	}
	return &c
}

// Replace overwrites s with next and wipes the key material s held. next
// must not share chains with s, which holds for a Clone of s.
func (s *State) Replace(next *State) {
	if s == next {
		return
	}
	if s.sender != nil {
		s.sender.ChainKey.Wipe()
		memzero.Zero(s.sender.RatchetKey.Private[:])
	}
	for _, rc := range s.receivers {
		rc.wipe()
	}
	s.rootKey.Wipe()
	*s = *next
}

func (rc *ReceiverChain) wipe() {
	rc.ChainKey.Wipe()
	for i := range rc.MessageKeys {
		rc.MessageKeys[i].Wipe()
	}
}
