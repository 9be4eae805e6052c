package relayserver

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the relay's runtime settings.
type Config struct {
	Addr      string        `validate:"required"`
	Backend   string        `validate:"oneof=memory redis"`
	RedisAddr string        `validate:"required_if=Backend redis"`
	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`
	LogLevel  string        `validate:"oneof=debug info warn error"`
}

// LoadConfig reads RELAY_* environment variables, falling back to defaults
// suitable for local use. The result is not validated; call Validate.
func LoadConfig() Config {
	ttl := 30 * 24 * time.Hour
	if raw := os.Getenv("RELAY_TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl = d
		}
	}
	return Config{
		Addr:      firstNonEmpty(os.Getenv("RELAY_ADDR"), ":8080"),
		Backend:   firstNonEmpty(os.Getenv("RELAY_BACKEND"), "memory"),
		RedisAddr: os.Getenv("RELAY_REDIS_ADDR"),
		JWTSecret: os.Getenv("RELAY_JWT_SECRET"),
		TokenTTL:  ttl,
		LogLevel:  firstNonEmpty(os.Getenv("RELAY_LOG_LEVEL"), "info"),
	}
}

// Validate checks c against its struct tags.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
