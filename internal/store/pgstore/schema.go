package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied statement by statement; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS trusted_identities (
	owner        TEXT   NOT NULL,
	name         TEXT   NOT NULL,
	identity_key BYTEA  NOT NULL,
	PRIMARY KEY (owner, name)
);
CREATE TABLE IF NOT EXISTS prekeys (
	owner       TEXT   NOT NULL,
	id          BIGINT NOT NULL,
	public_key  BYTEA  NOT NULL,
	private_key BYTEA  NOT NULL,
	PRIMARY KEY (owner, id)
);
CREATE TABLE IF NOT EXISTS signed_prekeys (
	owner       TEXT   NOT NULL,
	id          BIGINT NOT NULL,
	public_key  BYTEA  NOT NULL,
	private_key BYTEA  NOT NULL,
	signature   BYTEA  NOT NULL,
	created_at  BIGINT NOT NULL,
	PRIMARY KEY (owner, id)
);
CREATE TABLE IF NOT EXISTS sessions (
	owner      TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	device_id  BIGINT      NOT NULL,
	record     BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner, name, device_id)
)
`

// NewPool opens a connection pool for dsn.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
