/*
Package mock provides an in-memory implementation of the kv.KV interface.

It backs storage origins in tests and in processes that do not need
persistence. The store can be pre-seeded, individual operations can be
overridden to simulate backend failures, and every call is recorded.

# Basic Usage

	m := mock.New(mock.Config{Seed: map[string][]byte{"jStoreApp-a": []byte(`{"x":1}`)}})
	origin := storage.NewOrigin(m)

# Overriding Behavior

	m.OnGet("jStoreApp-bad").ReturnValue([]byte("{not json"))
	m.OnSet("jStoreApp-locked").ReturnError(errors.New("quota exceeded"))
	m.OnKeys().ReturnKeys([]string{"x", "y"})

# Inspecting Calls

	for _, c := range m.Calls() {
		// c.Op, c.Key, c.Value
	}
*/
package mock
