// Package prekey manages signed pre-keys and one-time pre-keys.
//
// Signed pre-keys get increasing ids and are signed with the identity's
// Ed25519 key. One-time pre-keys get consecutive ids and are queued for the
// next bundle upload.
package prekey
