// Package domain re-exports the shared data types and contracts so callers
// can import a single package.
//
// Protocol packages import domain/types directly; the contracts here refer
// to session records, which in turn depend on those types.
package domain
