package interfaces

import domaintypes "axolotl/internal/domain/types"

// AccountStore remembers which usernames this install has registered on
// which relays, along with the bearer token each relay issued.
type AccountStore interface {
	SaveAccountProfile(profile domaintypes.AccountProfile) error
	LoadAccountProfile(
		serverURL string,
		username domaintypes.Username,
	) (domaintypes.AccountProfile, bool, error)
	// AccountProfiles lists every saved profile in a stable order.
	AccountProfiles() ([]domaintypes.AccountProfile, error)
}
