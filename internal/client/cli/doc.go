// Package cli provides the interactive syncbox command-line client, a
// foreground context of the sync engine.
//
// Every write goes straight to the shared Durable Store together with its
// outbox item, so it survives a crash or a missing network. After a write the
// CLI registers the background sync tag and asks the syncd daemon, over the
// Notification Bridge, for an immediate pass. SYNC_DONE messages from the
// daemon are printed as they arrive, and a connectivity watcher keeps an
// offline badge in the prompt.
//
// Key commands:
//   - add / edit / done / delete: local writes, queued for sync
//   - list / show: local view, with a per-record pending marker
//   - sync: request a pass now (runs one in-process when no daemon answers)
//   - status / dead / requeue: outbox health
//   - remote: what the Remote API currently holds
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
