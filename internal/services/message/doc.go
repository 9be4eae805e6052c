// Package message encrypts outgoing plaintext and decrypts relay envelopes.
//
// Every operation on a peer device runs under that device's lock: load the
// record, ratchet a working copy, and write it back only on success, so a
// forged or replayed envelope never disturbs a live session. ReceiveMessages
// drops envelopes that can never decrypt and leaves the rest queued.
package message
