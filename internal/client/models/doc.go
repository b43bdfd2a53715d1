// Package models defines the client-side data model: Records the user edits,
// OutboxItems describing pending remote mutations, and the Payload shape both
// share with the Remote API.
package models
