// Package fingerprint builds the two forms of identity verification users
// exchange out of band: a numeric safety number read aloud and a scannable
// payload compared byte for byte.
package fingerprint
