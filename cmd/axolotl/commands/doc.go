// Package commands defines the axolotl CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create the local identity
//   - fingerprint    Print the identity fingerprint
//   - register       Claim an address on a relay and publish pre-keys
//   - start-session  Establish a session with a peer from their bundle
//   - send           Encrypt and send a message
//   - recv           Fetch and decrypt queued messages
//   - safety-number  Show the numeric and scannable fingerprints for a peer
//   - verify         Compare a peer's scannable fingerprint with ours
//
// # Implementation
//
// The root command reads flags (with AXOLOTL_* environment fallbacks), builds
// an app.Wire before any subcommand runs, and restores the relay token saved
// for --username. Commands that need keys unlock the identity with the
// passphrase via Wire.Open.
package commands
