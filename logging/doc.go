/*
Package logging offers a client for emitting log entries from Tarmac WebAssembly
functions to the host runtime, and the slog plumbing used across jstore.

The Client interface has convenience methods for the host's log levels (Info,
Warn, Error, Debug, Trace). NewHandler adapts a Client to slog.Handler so a
function can hand an ordinary *slog.Logger to the record store and channel.

Diagnostics picks the logger a component writes debug output to: the supplied
logger when debug is enabled, otherwise one that discards everything.
*/
package logging
