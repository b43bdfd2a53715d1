// Package daemon composes the background side of syncbox: the Sync Engine,
// the trigger table, the connectivity watcher, the Notification Bridge
// server and the caching proxy, all sharing one Durable Store.
package daemon
