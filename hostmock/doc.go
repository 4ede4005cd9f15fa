/*
Package hostmock provides a pretend waPC host for tests.

It lets tests validate exactly what a component sends to the Tarmac host
without a real host running.

Mock checks routing (namespace and capability, when set), dispatches by
function name to per-function Handlers, records every call, and can be told to
fail outright:

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "logging",
	  Functions: map[string]hostmock.Handler{
	    "Debug": func(p []byte) ([]byte, error) { return nil, nil },
	  },
	})

	client, _ := logging.New(logging.Config{HostCall: m.HostCall})

Without Functions, every function is accepted; PayloadValidator runs and
Response (when set) provides the return bytes.

KVStore goes one step further and emulates the kvstore capability in memory,
speaking the same protobuf messages as the real host. It is the backend used to
run the record store and channel end to end over kv.Client.

Behavior

  - If Fail is true and Error is set, HostCall returns that error.
  - If Fail is true and Error is nil, HostCall returns ErrOperationFailed.
  - Blank expectations are wildcards.
  - An unrouted function returns ErrUnexpectedFunction when Functions is set.
*/
package hostmock
