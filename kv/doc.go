/*
Package kv defines the backend contract behind a storage origin and provides a
client for the Tarmac key-value capability.

KV is the minimal byte-oriented interface (Get, Set, Delete, Keys, Close) that
every backend implements: the in-memory kv/mock, the persistent kv/sqlite,
and Client, which serializes requests with project protobufs and forwards
them to the host with waPC. Zero-value Config options fall back to
jstore.DefaultHostNamespace and the default waPC host call; tests inject
custom host behaviour with Config.HostCall.
*/
package kv
