// Package pgstore is a Postgres-backed ProtocolStore.
//
// Rows are partitioned by owner, the local username, so several local
// accounts can share one database. The local identity itself is not stored
// here; it stays in the passphrase-sealed keyring and is handed to New.
package pgstore
