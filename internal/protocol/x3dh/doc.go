// Package x3dh computes the key agreement secret that seeds a ratchet
// session.
//
// # Overview
//
// The initiator (Alice) combines her identity key and a fresh base key with
// the responder's published keys:
//   - Identity key (X25519)
//   - Signed prekey (X25519), whose signature the caller has already checked
//   - Optional one-time prekey (X25519)
//
// # Transcript
//
// Both sides build the same byte string:
//
//	0xFF*32 || DH(IKa, SPKb) || DH(EKa, IKb) || DH(EKa, SPKb) [|| DH(EKa, OPKb)]
//
// The 0xFF prefix is the discontinuity marker of the curve25519 key family.
// The secret is fed to HKDF by the ratchet initialiser; this package never
// derives keys itself.
//
// # Errors
//
// Low-order or otherwise unusable public keys surface as crypto.ErrInvalidKey.
package x3dh
