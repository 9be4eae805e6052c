// Package relayserver is the store-and-forward relay. It holds published
// pre-key bundles and queues encrypted envelopes until their recipient
// fetches and acknowledges them. It never sees plaintext or private keys.
//
// HTTP API
//
//	POST /v1/accounts                      {name, device_id} -> 201 {token}
//	PUT  /v1/bundles/{name}/{device}       PublishedBundle -> 204      (own token)
//	GET  /v1/bundles/{name}/{device}       -> PreKeyBundle, one one-time pre-key consumed
//	POST /v1/messages/{name}/{device}      Envelope -> 201 {id}        (sender's token)
//	GET  /v1/messages/{name}/{device}?limit=N -> [Envelope]            (own token)
//	POST /v1/messages/{name}/{device}/ack  {ids} -> {acked}            (own token)
//	GET  /health
//
// Tokens are HS256 JWTs bound to one address. State lives in a Backend:
// MemoryBackend for development and tests, RedisBackend otherwise.
package relayserver
