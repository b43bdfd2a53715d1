// Package services contains the application services of the syncbox client.
//
// RecordService is what the foreground CLI uses: it edits Records through
// the Durable Store's composite operations so every change lands in the
// Outbox in the same transaction.
//
// SyncService is the Sync Engine. One call to RunPass reads a bounded batch
// of outbox items in replay order, pushes each to the Remote API, reflects
// the outcome in the store and finally broadcasts a SYNC_DONE notification.
// A failing item never aborts the pass.
package services
