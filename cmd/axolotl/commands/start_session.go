package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// startSessionCmd fetches a peer's bundle and stores a new session for it.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer[.device]>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := parseAddress(args[0])
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

			if err := a.Sessions.InitiateSession(ctx, peer); err != nil {
				return fmt.Errorf("starting session with %s: %w", peer, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session created with %s\n", peer)
			return nil
		},
	}
}
