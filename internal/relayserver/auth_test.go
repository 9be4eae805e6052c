package relayserver

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"axolotl/internal/domain"
)

func TestTokens_RoundTrip(t *testing.T) {
	tok := NewTokens("0123456789abcdef", time.Hour)
	addr := domain.Address{Name: "alice", DeviceID: 3}

	s, err := tok.Sign(addr)
	require.NoError(t, err)
	claims, err := tok.Verify(s)
	require.NoError(t, err)
	require.Equal(t, addr, claims.Address())
	require.Equal(t, "alice.3", claims.Subject)
}

func TestTokens_Rejects(t *testing.T) {
	tok := NewTokens("0123456789abcdef", time.Hour)
	addr := domain.Address{Name: "alice", DeviceID: 3}

	other := NewTokens("fedcba9876543210", time.Hour)
	s, err := other.Sign(addr)
	require.NoError(t, err)
	_, err = tok.Verify(s)
	require.Error(t, err, "foreign secret")

	start := time.Now()
	tok.now = func() time.Time { return start }
	s, err = tok.Sign(addr)
	require.NoError(t, err)
	tok.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = tok.Verify(s)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Name: "alice", DeviceID: 3})
	s, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tok.Verify(s)
	require.Error(t, err, "unsigned token")
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{
		Addr:      ":8080",
		Backend:   "memory",
		JWTSecret: "0123456789abcdef",
		TokenTTL:  time.Hour,
		LogLevel:  "info",
	}
	require.NoError(t, cfg.Validate())

	redisNoAddr := cfg
	redisNoAddr.Backend = "redis"
	require.Error(t, redisNoAddr.Validate())

	short := cfg
	short.JWTSecret = "short"
	require.Error(t, short.Validate())

	bogus := cfg
	bogus.Backend = "etcd"
	require.Error(t, bogus.Validate())
}
