package prekey

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
)

// maxPreKeyID bounds one-time pre-key ids; they wrap around below it.
const maxPreKeyID = 0xFFFFFE

// ErrNoSignedPreKey is returned by PublishedBundle before any signed pre-key
// has been generated.
var ErrNoSignedPreKey = errors.New("no signed prekey available")

// Service manages pre-key pairs and builds the public bundle.
//
// One-time pre-keys generated since the last PublishedBundle call are held
// until they are included in a bundle; the relay appends them to what it
// already has.
type Service struct {
	ids    domain.IdentityStore
	ps     domain.PreKeyStore
	sps    domain.SignedPreKeyStore
	now    func() time.Time
	mu     sync.Mutex
	unsent []domain.OneTimePreKey
}

// New returns a pre-key service over the given stores.
func New(ids domain.IdentityStore, ps domain.PreKeyStore, sps domain.SignedPreKeyStore) *Service {
	return &Service{ids: ids, ps: ps, sps: sps, now: time.Now}
}

// GenerateSignedPreKey creates a signed pre-key with the next free id and
// stores it. The newest signed pre-key is the one published.
func (s *Service) GenerateSignedPreKey() (domain.SignedPreKeyRecord, error) {
	id, err := s.ids.IdentityKeyPair()
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	existing, err := s.sps.LoadSignedPreKeys()
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	var next domain.SignedPreKeyID = 1
	for _, rec := range existing {
		if rec.ID >= next {
			next = rec.ID + 1
		}
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	rec := domain.SignedPreKeyRecord{
		ID:        next,
		KeyPair:   kp,
		Signature: crypto.SignPreKey(id.EdPriv, kp.Public),
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.sps.StoreSignedPreKey(rec); err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	return rec, nil
}

// GeneratePreKeys creates count one-time pre-keys with consecutive ids from a
// random starting point, skipping ids already in the store.
func (s *Service) GeneratePreKeys(count int) ([]domain.PreKeyRecord, error) {
	start, err := randomStart()
	if err != nil {
		return nil, err
	}

	out := make([]domain.PreKeyRecord, 0, count)
	for id := start; len(out) < count; id = id%maxPreKeyID + 1 {
		taken, err := s.ps.ContainsPreKey(id)
		if err != nil {
			return out, err
		}
		if taken {
			continue
		}
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return out, err
		}
		rec := domain.PreKeyRecord{ID: id, KeyPair: kp}
		if err := s.ps.StorePreKey(rec); err != nil {
			return out, err
		}
		out = append(out, rec)
	}

	s.mu.Lock()
	for _, rec := range out {
		s.unsent = append(s.unsent, domain.OneTimePreKey{ID: rec.ID, Key: rec.KeyPair.Public})
	}
	s.mu.Unlock()
	return out, nil
}

// PublishedBundle assembles what to upload: identity, the newest signed
// pre-key and every one-time pre-key not yet handed out by this method.
func (s *Service) PublishedBundle(username domain.Username, deviceID uint32) (domain.PublishedBundle, error) {
	id, err := s.ids.IdentityKeyPair()
	if err != nil {
		return domain.PublishedBundle{}, err
	}
	spks, err := s.sps.LoadSignedPreKeys()
	if err != nil {
		return domain.PublishedBundle{}, err
	}
	if len(spks) == 0 {
		return domain.PublishedBundle{}, ErrNoSignedPreKey
	}
	spk := spks[len(spks)-1]

	s.mu.Lock()
	otks := s.unsent
	s.unsent = nil
	s.mu.Unlock()

	return domain.PublishedBundle{
		Username:              username,
		DeviceID:              deviceID,
		RegistrationID:        id.RegistrationID,
		IdentityKey:           id.XPub,
		SigningKey:            id.EdPub,
		SignedPreKeyID:        spk.ID,
		SignedPreKey:          spk.KeyPair.Public,
		SignedPreKeySignature: spk.Signature,
		OneTimePreKeys:        otks,
	}, nil
}

func randomStart() (domain.PreKeyID, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return domain.PreKeyID(binary.BigEndian.Uint32(b[:])%maxPreKeyID + 1), nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
