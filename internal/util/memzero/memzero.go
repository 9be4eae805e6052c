// Package memzero wipes key material once it has been consumed.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// All zeroes each of the given buffers.
func All(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}
