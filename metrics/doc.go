/*
Package metrics provides a client for creating custom metrics through the
Tarmac host runtime, plus the instrument sets used by the channel and record
packages.

The package exposes constructors for Counter, Gauge, and Histogram metric
handles, each backed by protobuf payloads sent over waPC host calls.

Metric emission methods follow Prometheus-style ergonomics: Inc/Dec/Observe
are best-effort and do not return errors. Marshal or host-call failures are
swallowed. Nil handles and nil instrument sets discard updates, so components
built without metrics need no special casing.
*/
package metrics
