package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/ratchet"
	protosession "axolotl/internal/protocol/session"
	"axolotl/internal/protocol/wire"
	sessionsvc "axolotl/internal/services/session"
)

// ErrNoSession indicates there is no stored session with the peer.
var ErrNoSession = ratchet.ErrNoSession

// Service encrypts and decrypts for peer devices and moves envelopes through
// the relay.
//
// Work for one address is serialised; different addresses proceed in
// parallel. A session record is stored only after an operation on it
// succeeds.
type Service struct {
	store   domain.ProtocolStore
	builder domain.SessionService
	relay   domain.RelayClient
	limits  protosession.Limits
	log     *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[domain.Address]*sync.Mutex
}

// New constructs a message Service. relay may be nil when only the local
// Encrypt and Decrypt calls are used.
func New(
	store domain.ProtocolStore,
	builder domain.SessionService,
	relay domain.RelayClient,
	limits protosession.Limits,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:   store,
		builder: builder,
		relay:   relay,
		limits:  limits,
		log:     log,
		now:     time.Now,
		locks:   make(map[domain.Address]*sync.Mutex),
	}
}

func (s *Service) lockFor(addr domain.Address) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[addr]
	if !ok {
		l = new(sync.Mutex)
		s.locks[addr] = l
	}
	return l
}

// Encrypt seals plaintext for addr and advances the sending chain.
func (s *Service) Encrypt(addr domain.Address, plaintext []byte) (wire.CiphertextMessage, error) {
	l := s.lockFor(addr)
	l.Lock()
	defer l.Unlock()
	return s.encryptLocked(addr, plaintext)
}

// encryptLocked is Encrypt for callers already holding addr's lock.
func (s *Service) encryptLocked(addr domain.Address, plaintext []byte) (wire.CiphertextMessage, error) {
	rec, ok, err := s.store.LoadSession(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w with %s", ErrNoSession, addr)
	}
	msg, err := ratchet.Encrypt(rec.State(), plaintext)
	if err != nil {
		return nil, err
	}
	if err := s.store.StoreSession(addr, rec); err != nil {
		return nil, err
	}
	return msg, nil
}

// Decrypt opens a steady-state message from addr.
func (s *Service) Decrypt(addr domain.Address, msg *wire.SignalMessage) ([]byte, error) {
	l := s.lockFor(addr)
	l.Lock()
	defer l.Unlock()

	rec, ok, err := s.store.LoadSession(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w with %s", ErrNoSession, addr)
	}
	pt, err := ratchet.DecryptRecord(rec, msg)
	if err != nil {
		return nil, err
	}
	if err := s.store.StoreSession(addr, rec); err != nil {
		return nil, err
	}
	return pt, nil
}

// DecryptPreKey opens an initial message from addr, setting up the
// responder session first when needed. The one-time pre-key it used is
// deleted once the message decrypts.
func (s *Service) DecryptPreKey(addr domain.Address, msg *wire.PreKeySignalMessage) ([]byte, error) {
	l := s.lockFor(addr)
	l.Lock()
	defer l.Unlock()

	rec, ok, err := s.store.LoadSession(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		rec = protosession.NewRecord(s.limits)
	}

	used, err := s.builder.ProcessPreKeyMessage(addr, rec, msg)
	if err != nil {
		return nil, err
	}
	pt, err := ratchet.DecryptRecord(rec, msg.Message())
	if err != nil {
		return nil, err
	}
	if err := s.store.StoreSession(addr, rec); err != nil {
		return nil, err
	}
	if used != nil {
		if err := s.store.RemovePreKey(*used); err != nil {
			return nil, err
		}
	}
	return pt, nil
}

// RemoteRegistrationID returns the registration id addr announced.
func (s *Service) RemoteRegistrationID(addr domain.Address) (domain.RegistrationID, error) {
	rec, ok, err := s.store.LoadSession(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w with %s", ErrNoSession, addr)
	}
	return rec.State().RemoteRegistrationID(), nil
}

// SendMessage encrypts plaintext for to and posts it through the relay. If
// there is no session yet, one is built from to's published bundle first.
func (s *Service) SendMessage(
	ctx context.Context,
	from domain.Address,
	to domain.Address,
	plaintext []byte,
) error {
	msg, err := s.setupAndEncrypt(ctx, to, plaintext)
	if err != nil {
		return err
	}
	id, err := s.relay.SendMessage(ctx, domain.Envelope{
		From:      from,
		To:        to,
		Type:      msg.Type(),
		Body:      msg.Serialize(),
		Timestamp: s.now().Unix(),
	})
	if err != nil {
		return err
	}
	s.log.Debug("message sent", "to", to.String(), "id", id, "type", msg.Type())
	return nil
}

// setupAndEncrypt builds a session with to if there is none and encrypts
// plaintext, all under to's lock so concurrent first sends share one setup.
func (s *Service) setupAndEncrypt(
	ctx context.Context,
	to domain.Address,
	plaintext []byte,
) (wire.CiphertextMessage, error) {
	l := s.lockFor(to)
	l.Lock()
	defer l.Unlock()

	has, err := s.store.ContainsSession(to)
	if err != nil {
		return nil, err
	}
	if !has {
		if err := s.builder.InitiateSession(ctx, to); err != nil {
			return nil, err
		}
	}
	return s.encryptLocked(to, plaintext)
}

// ReceiveMessages fetches up to limit envelopes for me and decrypts them in
// order.
//
// Envelopes that can never decrypt (malformed, replayed, from an untrusted
// identity, and so on) are logged, dropped and acknowledged. Any other
// failure stops processing; envelopes handled so far are acknowledged and
// the rest stay queued for the next call.
func (s *Service) ReceiveMessages(
	ctx context.Context,
	me domain.Address,
	limit int,
) ([]domain.DecryptedMessage, error) {
	envs, err := s.relay.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DecryptedMessage, 0, len(envs))
	done := make([]string, 0, len(envs))
	var stopErr error

	for _, env := range envs {
		pt, err := s.open(env)
		if err != nil {
			if !permanent(err) {
				stopErr = fmt.Errorf("decrypt %s from %s: %w", env.ID, env.From, err)
				break
			}
			s.log.Warn("dropping undecryptable message",
				"id", env.ID, "from", env.From.String(), "err", err)
			done = append(done, env.ID)
			continue
		}
		out = append(out, domain.DecryptedMessage{
			From:      env.From,
			To:        env.To,
			Plaintext: pt,
			Timestamp: env.Timestamp,
		})
		done = append(done, env.ID)
	}

	if len(done) > 0 {
		if err := s.relay.AckMessages(ctx, me, done); err != nil {
			return out, errors.Join(stopErr, fmt.Errorf("ack %d messages: %w", len(done), err))
		}
	}
	return out, stopErr
}

func (s *Service) open(env domain.Envelope) ([]byte, error) {
	msg, err := wire.Parse(env.Type, env.Body)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *wire.PreKeySignalMessage:
		return s.DecryptPreKey(env.From, m)
	case *wire.SignalMessage:
		return s.Decrypt(env.From, m)
	default:
		return nil, fmt.Errorf("%w: type %d", wire.ErrInvalidMessage, env.Type)
	}
}

// permanent reports whether retrying err later cannot succeed.
func permanent(err error) bool {
	for _, target := range []error{
		wire.ErrInvalidMessage,
		wire.ErrUnrecognizedVersion,
		wire.ErrLegacyVersion,
		protosession.ErrDuplicateMessage,
		protosession.ErrTooFarInFuture,
		sessionsvc.ErrUntrustedIdentity,
		sessionsvc.ErrNoSignedPreKey,
		sessionsvc.ErrNoPreKey,
		ErrNoSession,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
