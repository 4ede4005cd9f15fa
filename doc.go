/*
Package jstore provides the shared configuration and error taxonomy for a
namespaced JSON record store and a cross-context command channel built on a
shared key-value substrate.

The package exposes New to validate a Config into a RuntimeConfig snapshot
that is shared by the components (record, channel, kv). DefaultPrefix is used
when a namespace prefix is not explicitly provided, and BroadcastKey is the
reserved, never-prefixed key used by the channel to carry fired commands.
LoadConfig reads the same options from a YAML file.
*/
package jstore
