// Package store is the Durable Store: the local SQLite database holding
// Records, the Outbox and metadata, shared by the foreground CLI and the
// background daemon.
//
// Every composite write (queue a create, queue an update, retire an outbox
// item after a successful replay) runs as one transaction, so a Record and
// the OutboxItem describing its change are always written or discarded
// together. Failures surface as *common.StorageError; the transaction has
// been rolled back by then.
//
// Typical usage:
//
//	st := store.New(path, store.WithLogger(log))
//	if _, err := st.Open(ctx); err != nil { ... }
//	rec, err := st.QueueCreate(ctx, "buy milk", "")
//	batch, err := st.ReadBatch(ctx, 50)
package store
