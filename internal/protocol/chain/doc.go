// Package chain holds the three KDF chain values of the ratchet: the root
// key, the per-direction chain key, and the one-shot message keys a chain
// key yields.
//
// All three are plain values. Advancing returns a new value and leaves the
// receiver untouched, so callers decide when the old one is wiped.
package chain
