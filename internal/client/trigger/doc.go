// Package trigger decides when the sync engine runs.
//
// A Dispatcher holds the table of named handlers registered once at startup
// (startup, sync-outbox, run-now). Concurrent fires of the same name share a
// single execution. The SyncManager stores one-shot background sync
// registrations in the Durable Store so the foreground CLI can request a
// pass that the daemon delivers when connectivity allows; a registration is
// dropped once its handler succeeds. The Watcher probes the Remote API and
// fires pending registrations while online.
package trigger
