// Package session establishes sessions with peer devices.
//
// Builder.ProcessBundle runs the initiator side from a fetched pre-key bundle.
// Builder.ProcessPreKeyMessage runs the responder side from the first message
// a peer sends. Both check the peer identity against what the store has seen
// before and refuse a changed key.
package session
