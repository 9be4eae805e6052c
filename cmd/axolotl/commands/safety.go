package commands

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"axolotl/internal/app"
	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/protocol/fingerprint"
)

func safetyNumber(a *app.App, peer domain.Username) (fingerprint.Fingerprint, error) {
	addr, err := me()
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	id, err := a.Store.IdentityKeyPair()
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	theirs, ok, err := a.Store.RemoteIdentity(peer)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	if !ok {
		return fingerprint.Fingerprint{}, fmt.Errorf("no identity key on record for %s; exchange a message first", peer)
	}
	gen := fingerprint.NewGenerator(fingerprint.DefaultIterations)
	return gen.Create(string(addr.Name), id.XPub, string(peer), theirs), nil
}

func safetyNumberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "safety-number <peer>",
		Short: "Show the safety number to compare with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fp, err := safetyNumber(a, domain.Username(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Safety number:\n%s\n", fingerprint.Format(fp.Displayable))
			fmt.Fprintf(out, "Scannable: %s\n", crypto.B64(fp.Scannable.Serialize()))
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <peer> <scannable>",
		Short: "Check the scannable fingerprint a peer shows you",
		Long:  "The scannable argument is the base64 or hex string from the peer's safety-number output.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanned, err := crypto.FromB64(args[1])
			if err != nil {
				if scanned, err = hex.DecodeString(args[1]); err != nil {
					return fmt.Errorf("scannable fingerprint is neither base64 nor hex")
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fp, err := safetyNumber(a, domain.Username(args[0]))
			if err != nil {
				return err
			}
			ok, err := fp.Scannable.Compare(scanned)
			var mismatch *fingerprint.IdentifierMismatchError
			switch {
			case errors.As(err, &mismatch):
				return fmt.Errorf("fingerprint is for a different pair of users: %w", err)
			case err != nil:
				return err
			case !ok:
				return fmt.Errorf("fingerprints do not match; %s's identity key may have changed", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Verified %s\n", args[0])
			return nil
		},
	}
}
