// Package kdf wraps HKDF-SHA256 with the framing used by protocol version 3.
package kdf
