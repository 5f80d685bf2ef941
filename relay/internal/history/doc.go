// Package history keeps the most recent forwarding outcome per host in memory.
// Entries expire after a TTL; a background goroutine (Run) evicts them.
// Nothing is persisted: a relay restart starts with an empty history.
package history
