// Package wire encodes and decodes the two ciphertext message types.
//
// Each message is one version byte followed by a protobuf body. The high
// nibble of the version byte is the message version and the low nibble is
// the newest version the sender understands. SignalMessage additionally
// carries a truncated HMAC after the body.
package wire
