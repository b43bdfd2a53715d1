// Package common contains shared constants and the error taxonomy used across
// syncbox components.
package common

const (
	// IdempotencyKeyHeader carries the per-outbox-item key on create requests
	// so the Remote API can recognise a replayed create.
	IdempotencyKeyHeader = "Idempotency-Key"

	// AuthorizationHeader carries the optional bearer token.
	AuthorizationHeader = "Authorization"
)
