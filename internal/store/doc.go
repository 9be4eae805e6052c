// Package store provides persistence for axolotl's protocol state.
//
// The file stores serialise data under the user's configured home
// directory: JSON for keys and trust records, CBOR for session records, and
// a passphrase-sealed blob for the local identity. Every write goes through
// a temp file and rename. All methods are concurrency-safe via internal
// locking.
//
// The package includes:
//   - Local identity and peer trust (IdentityFileStore)
//   - One-time and signed pre-keys (PreKeyFileStore)
//   - Session records (SessionFileStore)
//   - Relay account profiles (AccountFileStore)
//   - FileStore, which bundles the first three into a ProtocolStore
//   - Memory, an in-process ProtocolStore for tests and ephemeral use
//
// A Postgres implementation lives in the pgstore subpackage.
package store
