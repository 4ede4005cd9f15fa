/*
Package storage provides the shared key-value substrate seen by every
execution context of an application.

An Origin wraps one kv.KV backend. Each execution context calls Attach and
uses the returned Context as its Port: synchronous GetItem, SetItem,
RemoveItem, Clear, Length and Key, plus Subscribe for change notification.

A mutation made through one Context is published to every other attached
Context that has at least one listener at that moment; the writer never
observes its own change. Events are queued per context and delivered in write
order by the context's event loop (Run) or by an explicit Flush, so delivery
always happens after the writing call has returned on the writer's side.
A context that is not listening when a change happens misses it.

Changes made outside the process, such as those read from the kv/sqlite
change feed, enter the origin through Inject.
*/
package storage
