// Package main runs the axolotl relay: a store-and-forward HTTP service for
// pre-key bundles and encrypted envelopes. See internal/relayserver for the
// API.
//
// Environment
//
//	RELAY_ADDR        listen address (default :8080)
//	RELAY_BACKEND     memory or redis (default memory)
//	RELAY_REDIS_ADDR  Redis address, required for the redis backend
//	RELAY_JWT_SECRET  HS256 secret for access tokens, at least 16 bytes
//	RELAY_TOKEN_TTL   token lifetime as a Go duration (default 720h)
//	RELAY_LOG_LEVEL   debug, info, warn or error (default info)
//
// Logs are JSON on stderr, one line per request.
package main
