// Package sqlite provides a persistent kv.KV backed by a SQLite file.
//
// Every process that opens the same file shares one origin. Each mutation is
// also appended to a change feed so that a Store can Follow writes made by
// other processes and turn them into storage notifications.
package sqlite
