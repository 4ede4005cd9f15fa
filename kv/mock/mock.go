package mock

import (
	"sort"
	"sync"

	"github.com/tarmac-project/jstore/kv"
)

// Operation names used for per-call configuration and call records.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpDelete = "DELETE"
	OpKeys   = "KEYS"
)

// Config configures the mock backend.
type Config struct {
	// Seed pre-populates the in-memory store.
	Seed map[string][]byte
}

// Response describes a configured outcome for one operation.
type Response struct {
	// Value applies to GET.
	Value []byte
	// Keys applies to KEYS.
	Keys []string
	// Err is returned by the operation when set.
	Err error
}

// ResponseBuilder allows fluent configuration of responses.
type ResponseBuilder struct {
	m   *Client
	key string
}

// ReturnValue sets the bytes returned by GET.
func (b *ResponseBuilder) ReturnValue(v []byte) *ResponseBuilder {
	b.m.update(b.key, func(r *Response) { r.Value = append([]byte(nil), v...) })
	return b
}

// ReturnKeys sets the keys returned by KEYS.
func (b *ResponseBuilder) ReturnKeys(keys []string) *ResponseBuilder {
	b.m.update(b.key, func(r *Response) { r.Keys = append([]string(nil), keys...) })
	return b
}

// ReturnError sets an error for the configured operation.
func (b *ResponseBuilder) ReturnError(err error) *Client {
	b.m.update(b.key, func(r *Response) { r.Err = err })
	return b.m
}

// Call records an operation performed against the mock.
type Call struct {
	Op    string
	Key   string
	Value []byte
}

// Client is an in-memory kv.KV. It is safe for concurrent use.
type Client struct {
	mu        sync.Mutex
	store     map[string][]byte
	responses map[string]Response
	calls     []Call
}

// Ensure Client satisfies kv.KV at compile time.
var _ kv.KV = (*Client)(nil)

// New creates a new mock backend.
func New(cfg Config) *Client {
	st := make(map[string][]byte, len(cfg.Seed))
	for k, v := range cfg.Seed {
		st[k] = append([]byte(nil), v...)
	}
	return &Client{
		store:     st,
		responses: make(map[string]Response),
	}
}

// OnGet configures a GET response for a key.
func (m *Client) OnGet(key string) *ResponseBuilder {
	return &ResponseBuilder{m: m, key: OpGet + " " + key}
}

// OnSet configures a SET response for a key.
func (m *Client) OnSet(key string) *ResponseBuilder {
	return &ResponseBuilder{m: m, key: OpSet + " " + key}
}

// OnDelete configures a DELETE response for a key.
func (m *Client) OnDelete(key string) *ResponseBuilder {
	return &ResponseBuilder{m: m, key: OpDelete + " " + key}
}

// OnKeys configures the KEYS response.
func (m *Client) OnKeys() *ResponseBuilder { return &ResponseBuilder{m: m, key: OpKeys} }

// Calls returns a copy of the recorded operations.
func (m *Client) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Snapshot returns a copy of the stored data.
func (m *Client) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.store))
	for k, v := range m.store {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

func (m *Client) update(key string, fn func(*Response)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.responses[key]
	fn(&r)
	m.responses[key] = r
}

func (m *Client) record(c Call) {
	m.calls = append(m.calls, c)
}

// Get implements kv.KV.
func (m *Client) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: OpGet, Key: key})
	if key == "" {
		return nil, kv.ErrInvalidKey
	}
	if r, ok := m.responses[OpGet+" "+key]; ok {
		return r.Value, r.Err
	}
	v, ok := m.store[key]
	if !ok {
		return nil, kv.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements kv.KV.
func (m *Client) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: OpSet, Key: key, Value: append([]byte(nil), value...)})
	if key == "" {
		return kv.ErrInvalidKey
	}
	if value == nil {
		return kv.ErrInvalidValue
	}
	if r, ok := m.responses[OpSet+" "+key]; ok && r.Err != nil {
		return r.Err
	}
	m.store[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements kv.KV.
func (m *Client) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: OpDelete, Key: key})
	if key == "" {
		return kv.ErrInvalidKey
	}
	if r, ok := m.responses[OpDelete+" "+key]; ok {
		return r.Err
	}
	if _, ok := m.store[key]; !ok {
		return kv.ErrKeyNotFound
	}
	delete(m.store, key)
	return nil
}

// Keys implements kv.KV. Keys are returned sorted.
func (m *Client) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: OpKeys})
	if r, ok := m.responses[OpKeys]; ok {
		return append([]string(nil), r.Keys...), r.Err
	}
	keys := make([]string, 0, len(m.store))
	for k := range m.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements kv.KV.
func (m *Client) Close() error { return nil }
