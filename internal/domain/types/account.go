package types

// AccountProfile identifies an account on a specific relay server. Token is
// the bearer token the relay issued at registration; it guards the mailbox.
type AccountProfile struct {
	ServerURL string   `json:"server_url"`
	Username  Username `json:"username"`
	DeviceID  uint32   `json:"device_id"`
	Token     string   `json:"token"`
}
