// Package app assembles the client from Config.
//
// Construction is two-phase. NewWire needs no passphrase and covers the
// keyring, saved relay accounts and the relay client. Wire.Open unseals the
// identity, picks the file or Postgres protocol store and returns an App
// holding the pre-key, session and message services.
package app
