package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"axolotl/internal/domain"
)

func registerCmd() *cobra.Command {
	var (
		count  int
		rotate bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Claim your address on the relay and publish pre-keys",
		Long: "Claims --username/--device on the relay the first time it runs, then " +
			"publishes a bundle. Run it again to top up one-time pre-keys; " +
			"--rotate also replaces the signed pre-key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := me()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if wire.Relay.Token() == "" {
				tok, err := wire.Relay.Register(ctx, addr)
				if err != nil {
					return err
				}
				err = wire.Accounts.SaveAccountProfile(domain.AccountProfile{
					ServerURL: cfg.RelayURL,
					Username:  addr.Name,
					DeviceID:  addr.DeviceID,
					Token:     tok,
				})
				if err != nil {
					return err
				}
				rotate = true
			}

			if !rotate {
				spks, err := a.Store.LoadSignedPreKeys()
				if err != nil {
					return err
				}
				rotate = len(spks) == 0
			}
			if rotate {
				if _, err := a.PreKeys.GenerateSignedPreKey(); err != nil {
					return err
				}
			}
			if _, err := a.PreKeys.GeneratePreKeys(count); err != nil {
				return err
			}
			bundle, err := a.PreKeys.PublishedBundle(addr.Name, addr.DeviceID)
			if err != nil {
				return err
			}
			if err := wire.Relay.PublishBundle(ctx, bundle); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Published bundle for %s with %d one-time pre-keys\n", addr, len(bundle.OneTimePreKeys))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "prekeys", 20, "one-time pre-keys to generate")
	cmd.Flags().BoolVar(&rotate, "rotate", false, "also generate a new signed pre-key")
	return cmd
}
