/*
Package codec maps logical record identifiers to physical storage keys.

A physical key is the namespace prefix followed by the identifier. Because
callers sometimes pass identifiers that already carry the prefix, read and
delete paths Reduce the key so that any run of repeated prefixes collapses to
one. Reduce is idempotent and leaves keys without a repeated prefix untouched.
*/
package codec
