// Package identity owns the long-term key material of this install.
//
// GenerateIdentity refuses weak passphrases, then seals a fresh X25519
// identity key, an Ed25519 signing key and a 14-bit registration id into the
// domain.KeyringStore. The X25519 key is what peers pin on first contact.
package identity
