package relayserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"axolotl/internal/domain"
)

// RedisBackend keeps accounts, bundles and mailboxes in Redis.
//
// Keys, per address "name.device":
//
//	account:<addr>   "1"
//	bundle:<addr>    JSON PublishedBundle without one-time pre-keys
//	otk:<addr>       list of JSON OneTimePreKey, oldest first
//	mailbox:<addr>   list of JSON Envelope, oldest first
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func key(prefix string, addr domain.Address) string { return prefix + ":" + addr.String() }

func (r *RedisBackend) CreateAccount(ctx context.Context, addr domain.Address) error {
	ok, err := r.rdb.SetNX(ctx, key("account", addr), "1", 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *RedisBackend) AccountExists(ctx context.Context, addr domain.Address) (bool, error) {
	n, err := r.rdb.Exists(ctx, key("account", addr)).Result()
	return n == 1, err
}

func (r *RedisBackend) PutBundle(ctx context.Context, b domain.PublishedBundle) error {
	addr := domain.Address{Name: b.Username, DeviceID: b.DeviceID}
	otks := make([]any, 0, len(b.OneTimePreKeys))
	for _, otk := range b.OneTimePreKeys {
		data, err := json.Marshal(otk)
		if err != nil {
			return err
		}
		otks = append(otks, data)
	}
	b.OneTimePreKeys = nil
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key("bundle", addr), data, 0)
		if len(otks) > 0 {
			p.RPush(ctx, key("otk", addr), otks...)
		}
		return nil
	})
	return err
}

func (r *RedisBackend) TakeBundle(ctx context.Context, addr domain.Address) (domain.PreKeyBundle, error) {
	data, err := r.rdb.Get(ctx, key("bundle", addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PreKeyBundle{}, ErrNotFound
	}
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	var b domain.PublishedBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("decode bundle %s: %w", addr, err)
	}

	raw, err := r.rdb.LPop(ctx, key("otk", addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return b.Take(nil), nil
	}
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	var otk domain.OneTimePreKey
	if err := json.Unmarshal(raw, &otk); err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("decode one-time prekey %s: %w", addr, err)
	}
	return b.Take(&otk), nil
}

func (r *RedisBackend) Enqueue(ctx context.Context, env domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.rdb.RPush(ctx, key("mailbox", env.To), data).Err()
}

func (r *RedisBackend) Fetch(ctx context.Context, addr domain.Address, limit int) ([]domain.Envelope, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raws, err := r.rdb.LRange(ctx, key("mailbox", addr), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Envelope, 0, len(raws))
	for _, raw := range raws {
		var env domain.Envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		out = append(out, env)
	}
	return out, nil
}

// Ack removes entries by id. Each entry is removed by its exact stored
// value, so envelopes enqueued meanwhile are unaffected.
func (r *RedisBackend) Ack(ctx context.Context, addr domain.Address, ids []string) (int, error) {
	k := key("mailbox", addr)
	raws, err := r.rdb.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	var victims []string
	for _, raw := range raws {
		var env struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			continue
		}
		if drop[env.ID] {
			victims = append(victims, raw)
		}
	}
	if len(victims) == 0 {
		return 0, nil
	}

	cmds, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, v := range victims {
			p.LRem(ctx, k, 1, v)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, c := range cmds {
		if ic, ok := c.(*redis.IntCmd); ok {
			removed += int(ic.Val())
		}
	}
	return removed, nil
}

var _ Backend = (*RedisBackend)(nil)
