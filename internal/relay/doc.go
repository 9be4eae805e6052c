// Package relay provides an HTTP implementation of the domain.RelayClient
// interface used by axolotl.
//
// The relay is a store-and-forward service for encrypted envelopes and
// pre-key bundles between peers. It never sees plaintext or private keys.
//
// Supported operations include:
//   - Registering an address and receiving a bearer token for it.
//   - Publishing our pre-key bundle to the relay.
//   - Fetching a peer's pre-key bundle (one one-time pre-key per fetch).
//   - Sending encrypted envelopes to a peer via the relay.
//   - Fetching pending envelopes and acknowledging them by id.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors naming the method and
// path; 401/403, 404 and 409 wrap ErrUnauthorized, ErrNotFound and
// ErrConflict.
package relay
