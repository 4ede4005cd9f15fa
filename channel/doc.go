/*
Package channel implements a cross-context command channel on a storage.Port.

Fire writes the command name to the reserved broadcast key and removes it
straight away. Every other context attached to the same origin sees the write
as a change notification; the firing context does not. Watch registers a
handler for a command name, and the first Watch subscribes the channel to
notifications. Handlers run in registration order on the receiving context's
event loop. A failing or panicking handler is logged and does not stop the
others.

Delivery is fire-and-forget. A context that is not listening when a command
is fired misses it, and no payload travels beyond the command name.

Each Channel owns its Registry; there is no package-level state.
*/
package channel
