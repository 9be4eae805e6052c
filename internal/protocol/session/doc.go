// Package session holds per-peer ratchet state and the record that archives
// superseded states.
//
// A State is mutated by the ratchet package on every send and receive. It is
// not safe for concurrent use; callers serialise access per address.
package session
