package relayserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"axolotl/internal/domain"
)

// Claims bind a token to one registered address.
type Claims struct {
	Name     domain.Username `json:"name"`
	DeviceID uint32          `json:"dev"`
	jwt.RegisteredClaims
}

// Address returns the address the token was issued for.
func (c *Claims) Address() domain.Address {
	return domain.Address{Name: c.Name, DeviceID: c.DeviceID}
}

// Tokens issues and checks HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a Tokens signing with secret.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for addr.
func (t *Tokens) Sign(addr domain.Address) (string, error) {
	now := t.now()
	claims := Claims{
		Name:     addr.Name,
		DeviceID: addr.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses token and returns its claims.
func (t *Tokens) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
