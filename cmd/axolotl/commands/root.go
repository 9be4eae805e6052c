package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"axolotl/internal/app"
	"axolotl/internal/domain"
)

var (
	cfg        = app.DefaultConfig()
	passphrase string
	username   string
	deviceID   uint32
	verbose    bool
	timeout    time.Duration

	wire *app.Wire
)

// Execute runs the root command.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "axolotl",
		Short:         "End-to-end encrypted messaging over a relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				cfg.LogLevel = "debug"
			}
			if cfg.Home == "" {
				return fmt.Errorf("no home directory; set --home or AXOLOTL_HOME")
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			log := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, false)
			w, err := app.NewWire(cfg, log)
			if err != nil {
				return err
			}
			wire = w

			if username == "" {
				return adoptSoleAccount(wire.Accounts, cmd.Flags().Changed("device"))
			}
			prof, ok, err := wire.Accounts.LoadAccountProfile(cfg.RelayURL, domain.Username(username))
			if err != nil {
				return err
			}
			if ok {
				wire.Relay.SetToken(prof.Token)
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.Home, "home", cfg.Home, "state directory (env AXOLOTL_HOME, default ~/.axolotl)")
	f.StringVarP(&passphrase, "passphrase", "p", os.Getenv("AXOLOTL_PASSPHRASE"), "passphrase protecting the identity (env AXOLOTL_PASSPHRASE)")
	f.StringVar(&cfg.RelayURL, "relay", cfg.RelayURL, "relay base URL (env AXOLOTL_RELAY)")
	f.StringVarP(&username, "username", "u", os.Getenv("AXOLOTL_USERNAME"), "your relay username (env AXOLOTL_USERNAME)")
	f.Uint32Var(&deviceID, "device", 1, "your device id")
	f.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "keep protocol state in Postgres (env AXOLOTL_DATABASE_URL)")
	f.IntVar(&cfg.Limits.MaxReceiverChains, "max-receiver-chains", cfg.Limits.MaxReceiverChains, "receiver chains kept per session")
	f.IntVar(&cfg.Limits.MaxMessageKeys, "max-message-keys", cfg.Limits.MaxMessageKeys, "skipped message keys kept per chain")
	f.IntVar(&cfg.Limits.MaxFutureMessages, "max-future-messages", cfg.Limits.MaxFutureMessages, "largest accepted gap in a chain")
	f.DurationVar(&timeout, "timeout", 15*time.Second, "timeout for relay calls")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		startSessionCmd(),
		sendCmd(),
		recvCmd(),
		safetyNumberCmd(),
		verifyCmd(),
	)
	return root
}

// adoptSoleAccount fills in the username when exactly one account is
// registered against the configured relay.
func adoptSoleAccount(accounts domain.AccountStore, keepDevice bool) error {
	profiles, err := accounts.AccountProfiles()
	if err != nil {
		return err
	}
	var match []domain.AccountProfile
	for _, p := range profiles {
		if p.ServerURL == cfg.RelayURL {
			match = append(match, p)
		}
	}
	if len(match) != 1 {
		return nil
	}
	username = match[0].Username.String()
	if !keepDevice {
		deviceID = match[0].DeviceID
	}
	wire.Relay.SetToken(match[0].Token)
	return nil
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p or AXOLOTL_PASSPHRASE)")
	}
	return nil
}

func me() (domain.Address, error) {
	if username == "" {
		return domain.Address{}, fmt.Errorf("username required (-u or AXOLOTL_USERNAME)")
	}
	return domain.Address{Name: domain.Username(username), DeviceID: deviceID}, nil
}

// openApp unlocks the identity. Callers must Close the result.
func openApp(ctx context.Context) (*app.App, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	return wire.Open(ctx, passphrase)
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// parseAddress reads "name" or "name.device"; the device defaults to 1.
func parseAddress(s string) (domain.Address, error) {
	name, dev := s, uint64(1)
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		if n, err := strconv.ParseUint(s[i+1:], 10, 32); err == nil {
			name, dev = s[:i], n
		}
	}
	if name == "" {
		return domain.Address{}, fmt.Errorf("bad address %q", s)
	}
	return domain.Address{Name: domain.Username(name), DeviceID: uint32(dev)}, nil
}
