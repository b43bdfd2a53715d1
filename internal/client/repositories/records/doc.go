// Package records persists the user's Records in the local SQLite store.
//
// The SQLiteRepository works over dbx.DBTX, so the same code runs against
// *sql.DB for reads and *sql.Tx inside the store's units of work. Timestamps
// are unix milliseconds; remote_id stays NULL until the Remote API has
// acknowledged a create.
package records
