package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/protocol/ratchet"
	protosession "axolotl/internal/protocol/session"
	"axolotl/internal/protocol/wire"
)

var (
	// ErrUntrustedIdentity is returned when a peer's identity key differs
	// from the one recorded on first contact.
	ErrUntrustedIdentity = errors.New("untrusted identity key")
	// ErrInvalidSignature is returned when a bundle's signed pre-key does not
	// verify against its signing key.
	ErrInvalidSignature = errors.New("invalid signed prekey signature")
	// ErrNoSignedPreKey is returned when an initial message names a signed
	// pre-key we do not hold.
	ErrNoSignedPreKey = errors.New("unknown signed prekey")
	// ErrNoPreKey is returned when an initial message names a one-time
	// pre-key we do not hold, usually because it was already used.
	ErrNoPreKey = errors.New("unknown one-time prekey")
)

// Builder sets up sessions, either from a peer's pre-key bundle (we
// initiate) or from a peer's initial message (they initiated).
//
// A new session is stored alongside any previous one for the same device;
// the old state is archived in the record so late messages still decrypt.
type Builder struct {
	store  domain.ProtocolStore
	relay  domain.RelayClient
	limits protosession.Limits
	log    *slog.Logger
}

// New returns a Builder. relay may be nil when InitiateSession is not used.
func New(
	store domain.ProtocolStore,
	relay domain.RelayClient,
	limits protosession.Limits,
	log *slog.Logger,
) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{store: store, relay: relay, limits: limits, log: log}
}

// ProcessBundle verifies bundle and stores a new initiator session for addr.
// Messages encrypted on it carry the setup data until the peer replies.
func (b *Builder) ProcessBundle(addr domain.Address, bundle domain.PreKeyBundle) error {
	if !crypto.VerifyPreKey(bundle.SigningKey, bundle.SignedPreKey, bundle.SignedPreKeySignature) {
		return ErrInvalidSignature
	}
	if err := b.checkTrust(addr.Name, bundle.IdentityKey); err != nil {
		return err
	}

	id, err := b.store.IdentityKeyPair()
	if err != nil {
		return err
	}
	base, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate base key: %w", err)
	}

	st := protosession.NewState(b.limits)
	err = ratchet.InitializeAlice(st, ratchet.AliceParameters{
		OurIdentity:        id.KeyPair(),
		OurBaseKey:         base,
		TheirIdentity:      bundle.IdentityKey,
		TheirSignedPreKey:  bundle.SignedPreKey,
		TheirOneTimePreKey: bundle.PreKey,
		TheirRatchetKey:    bundle.SignedPreKey,
	})
	if err != nil {
		return err
	}
	st.SetPendingPreKey(protosession.PendingPreKey{
		PreKeyID:       bundle.PreKeyID,
		SignedPreKeyID: bundle.SignedPreKeyID,
		BaseKey:        base.Public,
	})
	st.SetLocalRegistrationID(id.RegistrationID)
	st.SetRemoteRegistrationID(bundle.RegistrationID)
	st.SetAliceBaseKey(base.Public)

	rec, err := b.loadRecord(addr)
	if err != nil {
		return err
	}
	install(rec, st)
	if err := b.store.StoreSession(addr, rec); err != nil {
		return err
	}
	if err := b.store.SaveIdentity(addr.Name, bundle.IdentityKey); err != nil {
		return err
	}

	b.log.Debug("session initialised",
		"peer", addr.String(),
		"role", "initiator",
		"identity", crypto.Fingerprint(bundle.IdentityKey),
		"one_time_prekey", bundle.PreKeyID != nil,
	)
	return nil
}

// ProcessPreKeyMessage installs a responder session in rec for msg. It does
// not store rec; the caller does so once the enclosed message decrypts.
//
// It returns the id of the one-time pre-key the peer used, which the caller
// removes after a successful decrypt. A message whose base key already
// matches a state in rec is a repeat and returns nil with no change.
func (b *Builder) ProcessPreKeyMessage(
	addr domain.Address,
	rec *protosession.Record,
	msg *wire.PreKeySignalMessage,
) (*domain.PreKeyID, error) {
	if err := b.checkTrust(addr.Name, msg.IdentityKey()); err != nil {
		return nil, err
	}
	if rec.HasSessionState(msg.Version(), msg.BaseKey()) {
		return nil, nil
	}

	spk, ok, err := b.store.LoadSignedPreKey(msg.SignedPreKeyID())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSignedPreKey, msg.SignedPreKeyID())
	}

	var (
		oneTime *domain.KeyPair
		usedID  *domain.PreKeyID
	)
	if pid, has := msg.PreKeyID(); has {
		pk, ok, err := b.store.LoadPreKey(pid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNoPreKey, pid)
		}
		oneTime, usedID = &pk.KeyPair, &pid
	}

	id, err := b.store.IdentityKeyPair()
	if err != nil {
		return nil, err
	}

	st := protosession.NewState(b.limits)
	err = ratchet.InitializeBob(st, ratchet.BobParameters{
		OurIdentity:      id.KeyPair(),
		OurSignedPreKey:  spk.KeyPair,
		OurOneTimePreKey: oneTime,
		OurRatchetKey:    spk.KeyPair,
		TheirIdentity:    msg.IdentityKey(),
		TheirBaseKey:     msg.BaseKey(),
	})
	if err != nil {
		return nil, err
	}
	st.SetLocalRegistrationID(id.RegistrationID)
	st.SetRemoteRegistrationID(msg.RegistrationID())
	st.SetAliceBaseKey(msg.BaseKey())

	install(rec, st)
	if err := b.store.SaveIdentity(addr.Name, msg.IdentityKey()); err != nil {
		return nil, err
	}

	b.log.Debug("session initialised",
		"peer", addr.String(),
		"role", "responder",
		"identity", crypto.Fingerprint(msg.IdentityKey()),
		"signed_prekey", uint32(msg.SignedPreKeyID()),
	)
	return usedID, nil
}

// InitiateSession fetches addr's bundle from the relay and processes it.
func (b *Builder) InitiateSession(ctx context.Context, addr domain.Address) error {
	if b.relay == nil {
		return errors.New("no relay configured")
	}
	bundle, err := b.relay.FetchBundle(ctx, addr)
	if err != nil {
		return fmt.Errorf("fetch bundle for %s: %w", addr, err)
	}
	return b.ProcessBundle(addr, bundle)
}

func (b *Builder) checkTrust(name domain.Username, key domain.X25519Public) error {
	ok, err := b.store.IsTrustedIdentity(name, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUntrustedIdentity, name)
	}
	return nil
}

func (b *Builder) loadRecord(addr domain.Address) (*protosession.Record, error) {
	rec, ok, err := b.store.LoadSession(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return protosession.NewRecord(b.limits), nil
	}
	return rec, nil
}

// install makes st live, archiving the previous state if there was one.
func install(rec *protosession.Record, st *protosession.State) {
	if rec.IsFresh() {
		rec.SetState(st)
		return
	}
	rec.PromoteState(st)
}

// Compile-time assertion that Builder implements domain.SessionService.
var _ domain.SessionService = (*Builder)(nil)
