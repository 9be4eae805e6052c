// Package ratchet implements the Double Ratchet over session.State.
//
// InitializeAlice and InitializeBob turn a completed key agreement into a
// live state; Encrypt and Decrypt advance it. Every DH ratchet step derives
// fresh chains from the root key, so a leaked message key exposes neither
// earlier nor later traffic.
//
// Concurrency: a State is NOT safe for concurrent use. Callers must
// serialise access per peer device.
package ratchet
