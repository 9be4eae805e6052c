// Package crypto exposes the minimal primitives used by axolotl.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519,
//     GenerateKeyPair, DH), plus public key decoding and ordering
//     (DecodePoint, ComparePublic)
//   - Ed25519 key generation, signing and verification, including the
//     signed pre-key helpers (SignPreKey, VerifyPreKey)
//   - AES-256-CBC with PKCS#7 padding for message bodies (EncryptCBC,
//     DecryptCBC)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// All functions return fixed-size array types defined in internal/domain/types to
// avoid accidental reallocations. Callers should treat returned secrets as
// sensitive and wipe them with memzero.Zero when practical.
package crypto
