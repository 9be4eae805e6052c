package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
)

// DefaultTimeout bounds each statement.
const DefaultTimeout = 5 * time.Second

// Store implements domain.ProtocolStore on Postgres.
type Store struct {
	pool     *pgxpool.Pool
	owner    string
	identity domain.Identity
	limits   session.Limits
	timeout  time.Duration
}

// New returns a Store for owner. Run Migrate once before use.
func New(pool *pgxpool.Pool, owner domain.Username, identity domain.Identity, limits session.Limits) *Store {
	return &Store{pool: pool, owner: string(owner), identity: identity, limits: limits, timeout: DefaultTimeout}
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Store) IdentityKeyPair() (domain.Identity, error) { return s.identity, nil }

func (s *Store) LocalRegistrationID() (domain.RegistrationID, error) {
	return s.identity.RegistrationID, nil
}

func (s *Store) SaveIdentity(name domain.Username, key domain.X25519Public) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trusted_identities (owner, name, identity_key) VALUES ($1, $2, $3)
		ON CONFLICT (owner, name) DO UPDATE SET identity_key = EXCLUDED.identity_key`,
		s.owner, string(name), key.Slice())
	return wrap("save identity", err)
}

func (s *Store) IsTrustedIdentity(name domain.Username, key domain.X25519Public) (bool, error) {
	known, ok, err := s.RemoteIdentity(name)
	if err != nil {
		return false, err
	}
	return !ok || known == key, nil
}

func (s *Store) RemoteIdentity(name domain.Username) (domain.X25519Public, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT identity_key FROM trusted_identities WHERE owner = $1 AND name = $2`,
		s.owner, string(name)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.X25519Public{}, false, nil
	}
	if err != nil {
		return domain.X25519Public{}, false, wrap("load identity", err)
	}
	var k domain.X25519Public
	if err := copyKey(k[:], raw); err != nil {
		return k, false, err
	}
	return k, true, nil
}

func (s *Store) LoadPreKey(id domain.PreKeyID) (domain.PreKeyRecord, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var pub, priv []byte
	err := s.pool.QueryRow(ctx,
		`SELECT public_key, private_key FROM prekeys WHERE owner = $1 AND id = $2`,
		s.owner, int64(id)).Scan(&pub, &priv)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PreKeyRecord{}, false, nil
	}
	if err != nil {
		return domain.PreKeyRecord{}, false, wrap("load prekey", err)
	}
	rec := domain.PreKeyRecord{ID: id}
	if err := keyPair(&rec.KeyPair, pub, priv); err != nil {
		return domain.PreKeyRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) StorePreKey(rec domain.PreKeyRecord) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO prekeys (owner, id, public_key, private_key) VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, id) DO UPDATE SET public_key = EXCLUDED.public_key, private_key = EXCLUDED.private_key`,
		s.owner, int64(rec.ID), rec.KeyPair.Public.Slice(), rec.KeyPair.Private.Slice())
	return wrap("store prekey", err)
}

func (s *Store) ContainsPreKey(id domain.PreKeyID) (bool, error) {
	return s.exists(`SELECT EXISTS (SELECT 1 FROM prekeys WHERE owner = $1 AND id = $2)`, s.owner, int64(id))
}

func (s *Store) RemovePreKey(id domain.PreKeyID) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx, `DELETE FROM prekeys WHERE owner = $1 AND id = $2`, s.owner, int64(id))
	return wrap("remove prekey", err)
}

func (s *Store) LoadSignedPreKey(id domain.SignedPreKeyID) (domain.SignedPreKeyRecord, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	row := s.pool.QueryRow(ctx, `
		SELECT id, public_key, private_key, signature, created_at
		FROM signed_prekeys WHERE owner = $1 AND id = $2`, s.owner, int64(id))
	rec, err := scanSignedPreKey(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SignedPreKeyRecord{}, false, nil
	}
	if err != nil {
		return domain.SignedPreKeyRecord{}, false, wrap("load signed prekey", err)
	}
	return rec, true, nil
}

func (s *Store) LoadSignedPreKeys() ([]domain.SignedPreKeyRecord, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, public_key, private_key, signature, created_at
		FROM signed_prekeys WHERE owner = $1 ORDER BY created_at, id`, s.owner)
	if err != nil {
		return nil, wrap("list signed prekeys", err)
	}
	defer rows.Close()

	var out []domain.SignedPreKeyRecord
	for rows.Next() {
		rec, err := scanSignedPreKey(rows)
		if err != nil {
			return nil, wrap("list signed prekeys", err)
		}
		out = append(out, rec)
	}
	return out, wrap("list signed prekeys", rows.Err())
}

func (s *Store) StoreSignedPreKey(rec domain.SignedPreKeyRecord) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO signed_prekeys (owner, id, public_key, private_key, signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner, id) DO UPDATE SET
			public_key = EXCLUDED.public_key, private_key = EXCLUDED.private_key,
			signature = EXCLUDED.signature, created_at = EXCLUDED.created_at`,
		s.owner, int64(rec.ID), rec.KeyPair.Public.Slice(), rec.KeyPair.Private.Slice(), rec.Signature, rec.Timestamp)
	return wrap("store signed prekey", err)
}

func (s *Store) ContainsSignedPreKey(id domain.SignedPreKeyID) (bool, error) {
	return s.exists(`SELECT EXISTS (SELECT 1 FROM signed_prekeys WHERE owner = $1 AND id = $2)`, s.owner, int64(id))
}

func (s *Store) RemoveSignedPreKey(id domain.SignedPreKeyID) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx, `DELETE FROM signed_prekeys WHERE owner = $1 AND id = $2`, s.owner, int64(id))
	return wrap("remove signed prekey", err)
}

func (s *Store) LoadSession(addr domain.Address) (*session.Record, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM sessions WHERE owner = $1 AND name = $2 AND device_id = $3`,
		s.owner, string(addr.Name), int64(addr.DeviceID)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("load session", err)
	}
	rec := new(session.Record)
	if err := rec.UnmarshalBinary(raw); err != nil {
		return nil, false, fmt.Errorf("session %s: %w", addr, err)
	}
	rec.SetLimits(s.limits)
	return rec, true, nil
}

func (s *Store) StoreSession(addr domain.Address, rec *session.Record) error {
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (owner, name, device_id, record) VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, name, device_id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
		s.owner, string(addr.Name), int64(addr.DeviceID), raw)
	return wrap("store session", err)
}

func (s *Store) ContainsSession(addr domain.Address) (bool, error) {
	rec, ok, err := s.LoadSession(addr)
	if err != nil || !ok {
		return false, err
	}
	return rec.State().HasSenderChain(), nil
}

func (s *Store) DeleteSession(addr domain.Address) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE owner = $1 AND name = $2 AND device_id = $3`,
		s.owner, string(addr.Name), int64(addr.DeviceID))
	return wrap("delete session", err)
}

func (s *Store) DeleteAllSessions(name domain.Username) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE owner = $1 AND name = $2`, s.owner, string(name))
	return wrap("delete sessions", err)
}

func (s *Store) DeviceSessions(name domain.Username) ([]uint32, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT device_id FROM sessions WHERE owner = $1 AND name = $2 ORDER BY device_id`,
		s.owner, string(name))
	if err != nil {
		return nil, wrap("list sessions", err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uint32, error) {
		var d int64
		err := row.Scan(&d)
		return uint32(d), err
	})
	return ids, wrap("list sessions", err)
}

func (s *Store) exists(query string, args ...any) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	var ok bool
	err := s.pool.QueryRow(ctx, query, args...).Scan(&ok)
	return ok, wrap("exists", err)
}

func scanSignedPreKey(row pgx.Row) (domain.SignedPreKeyRecord, error) {
	var (
		id        int64
		pub, priv []byte
		rec       domain.SignedPreKeyRecord
	)
	if err := row.Scan(&id, &pub, &priv, &rec.Signature, &rec.Timestamp); err != nil {
		return rec, err
	}
	rec.ID = domain.SignedPreKeyID(id)
	return rec, keyPair(&rec.KeyPair, pub, priv)
}

func keyPair(kp *domain.KeyPair, pub, priv []byte) error {
	if err := copyKey(kp.Public[:], pub); err != nil {
		return err
	}
	return copyKey(kp.Private[:], priv)
}

func copyKey(dst, src []byte) error {
	if len(src) != len(dst) {
		return fmt.Errorf("pgstore: stored key has %d bytes, want %d", len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("pgstore: %s: %w", op, err)
}

// Compile-time assertion that Store implements domain.ProtocolStore.
var _ domain.ProtocolStore = (*Store)(nil)
