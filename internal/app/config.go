package app

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"axolotl/internal/protocol/session"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	// Home is the state directory, e.g. $HOME/.axolotl.
	Home string `validate:"required"`

	// RelayURL is the relay base URL, e.g. http://127.0.0.1:8080.
	RelayURL string `validate:"required,url"`

	// HTTP is optional and defaults to http.DefaultClient.
	HTTP *http.Client `validate:"-"`

	// Limits bound per-session memory.
	Limits session.Limits

	LogLevel string `validate:"oneof=debug info warn error"`

	// DatabaseURL, when set, keeps pre-keys, trust and sessions in Postgres
	// instead of under Home. The sealed identity always stays under Home.
	DatabaseURL string `validate:"omitempty,url"`
}

// DefaultConfig returns a Config rooted at $AXOLOTL_HOME, or ~/.axolotl.
func DefaultConfig() Config {
	home := os.Getenv("AXOLOTL_HOME")
	if home == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(dir, ".axolotl")
		}
	}
	relayURL := os.Getenv("AXOLOTL_RELAY")
	if relayURL == "" {
		relayURL = "http://127.0.0.1:8080"
	}
	level := os.Getenv("AXOLOTL_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return Config{
		Home:        home,
		RelayURL:    relayURL,
		Limits:      session.DefaultLimits(),
		LogLevel:    level,
		DatabaseURL: os.Getenv("AXOLOTL_DATABASE_URL"),
	}
}

// Validate checks c against its struct tags.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
