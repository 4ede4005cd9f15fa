package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/codec"
	"github.com/tarmac-project/jstore/logging"
	"github.com/tarmac-project/jstore/metrics"
	"github.com/tarmac-project/jstore/storage"
)

// Record is a decoded JSON object. Numbers decode as json.Number.
type Record map[string]any

// Config controls how a Store addresses and reports on its records.
type Config struct {
	// SDKConfig provides the namespace prefix and debug toggle.
	SDKConfig jstore.RuntimeConfig

	// Port is the storage the records live in. A nil Port produces an
	// unsupported Store.
	Port storage.Port

	// Logger receives debug output when SDKConfig.Debug is set.
	Logger *slog.Logger

	// Metrics, when set, counts writes and corrupt reads.
	Metrics *metrics.RecordInstruments
}

// Store is a namespaced JSON record store.
type Store struct {
	prefix  string
	port    storage.Port
	log     *slog.Logger
	metrics *metrics.RecordInstruments
}

// New creates a Store over the configured Port.
func New(cfg Config) (*Store, error) {
	runtime := cfg.SDKConfig.WithDefaults()
	if runtime.Prefix == jstore.BroadcastKey {
		return nil, fmt.Errorf("%w: prefix %q collides with the broadcast key", jstore.ErrInvalidArgument, runtime.Prefix)
	}

	return &Store{
		prefix:  runtime.Prefix,
		port:    cfg.Port,
		log:     logging.Diagnostics(runtime, cfg.Logger),
		metrics: cfg.Metrics,
	}, nil
}

// Prefix returns the namespace prefix of the store.
func (s *Store) Prefix() string { return s.prefix }

// IsSupported reports whether the store has usable storage. When it returns
// false every other operation fails with jstore.ErrUnsupported.
func (s *Store) IsSupported() bool {
	if s.port == nil {
		return false
	}
	if p, ok := s.port.(interface{ Supported() bool }); ok {
		return p.Supported()
	}
	return true
}

// Set merges the top-level fields of value into the record stored for id.
// value must encode to a JSON object.
func (s *Store) Set(id string, value any) error {
	if !s.IsSupported() {
		return jstore.ErrUnsupported
	}

	doc, err := encodeObject(value)
	if err != nil {
		return err
	}

	cur, ok, err := s.read(codec.Resolve(s.prefix, id))
	if err != nil {
		return err
	}

	out := doc
	if ok {
		if out, err = merge(cur, doc); err != nil {
			return err
		}
	}

	return s.write(codec.Encode(s.prefix, id), out)
}

// Get returns the record stored for id. A record that was never set reports
// false with a nil error.
func (s *Store) Get(id string) (Record, bool, error) {
	if !s.IsSupported() {
		return nil, false, jstore.ErrUnsupported
	}

	key := codec.Resolve(s.prefix, id)
	raw, ok, err := s.port.GetItem(key)
	if err != nil || !ok {
		return nil, false, err
	}

	rec, err := decode(raw)
	if err != nil {
		s.metrics.CorruptRead()
		return nil, false, fmt.Errorf("%w: %s: %w", jstore.ErrCorruptRecord, key, err)
	}

	return rec, true, nil
}

// Del removes the named fields from the record stored for id. Fields that are
// not present are ignored. An absent record is left alone.
func (s *Store) Del(id string, fields ...string) error {
	if !s.IsSupported() {
		return jstore.ErrUnsupported
	}

	key := codec.Resolve(s.prefix, id)
	cur, ok, err := s.read(key)
	if err != nil || !ok {
		return err
	}

	present, err := fieldsOf(cur)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", jstore.ErrCorruptRecord, key, err)
	}

	var ops []operation
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if _, ok := present[f]; !ok || seen[f] {
			continue
		}
		seen[f] = true
		ops = append(ops, operation{Op: "remove", Path: pointer(f)})
	}

	out, err := apply(cur, ops)
	if err != nil {
		return err
	}

	return s.write(key, out)
}

// Omit keeps only the named fields of the record stored for id and drops the
// rest. With no fields the record becomes empty. An absent record is left
// alone.
func (s *Store) Omit(id string, fields ...string) error {
	if !s.IsSupported() {
		return jstore.ErrUnsupported
	}

	key := codec.Resolve(s.prefix, id)
	cur, ok, err := s.read(key)
	if err != nil || !ok {
		return err
	}

	present, err := fieldsOf(cur)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", jstore.ErrCorruptRecord, key, err)
	}

	keep := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		if v, ok := present[f]; ok {
			keep[f] = v
		}
	}

	out, err := json.Marshal(keep)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	return s.write(key, out)
}

// Has reports whether a record is stored for id.
func (s *Store) Has(id string) (bool, error) {
	_, ok, err := s.Get(id)
	return ok, err
}

// Count returns the number of keys in this store's namespace.
func (s *Store) Count() (int, error) {
	keys, err := s.namespaceKeys()
	return len(keys), err
}

// Each calls fn for every key in this store's namespace, in the storage's
// native order, with the physical (prefixed) key and its record. Iteration
// stops at the first error returned by fn, which is returned as is.
func (s *Store) Each(fn func(key string, rec Record) error) error {
	if fn == nil {
		return fmt.Errorf("%w: callback is nil", jstore.ErrInvalidArgument)
	}

	keys, err := s.namespaceKeys()
	if err != nil {
		return err
	}

	for _, k := range keys {
		rec, ok, err := s.Get(k)
		if err != nil {
			return err
		}
		if !ok {
			// Removed by another context since the keys were listed.
			continue
		}
		if err := fn(k, rec); err != nil {
			return err
		}
	}

	return nil
}

// IDs returns the logical identifiers of the records in this namespace, in the
// storage's native order.
func (s *Store) IDs() ([]string, error) {
	keys, err := s.namespaceKeys()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = codec.Logical(s.prefix, k)
	}
	return ids, nil
}

// Remove deletes the record stored for id. Other namespaces are untouched.
func (s *Store) Remove(id string) error {
	if !s.IsSupported() {
		return jstore.ErrUnsupported
	}

	key := codec.Resolve(s.prefix, id)
	if err := s.port.RemoveItem(key); err != nil {
		return err
	}
	s.log.Debug("remove", "key", key)
	return nil
}

// RemoveAll deletes every record in this namespace and returns how many keys
// were removed.
func (s *Store) RemoveAll() (int, error) {
	keys, err := s.namespaceKeys()
	if err != nil {
		return 0, err
	}

	for i, k := range keys {
		if err := s.port.RemoveItem(k); err != nil {
			return i, err
		}
	}

	s.log.Debug("remove all", "prefix", s.prefix, "count", len(keys))
	return len(keys), nil
}

// ClearStore deletes every key of the underlying storage, including other
// namespaces and the broadcast key.
func (s *Store) ClearStore() error {
	if !s.IsSupported() {
		return jstore.ErrUnsupported
	}

	if err := s.port.Clear(); err != nil {
		return err
	}
	s.log.Debug("clear store")
	return nil
}

// read returns the raw text under key after checking that it decodes as a
// record.
func (s *Store) read(key string) ([]byte, bool, error) {
	raw, ok, err := s.port.GetItem(key)
	if err != nil || !ok {
		return nil, false, err
	}

	if _, err := decode(raw); err != nil {
		s.metrics.CorruptRead()
		return nil, false, fmt.Errorf("%w: %s: %w", jstore.ErrCorruptRecord, key, err)
	}

	return []byte(raw), true, nil
}

func (s *Store) write(key string, doc []byte) error {
	if err := s.port.SetItem(key, string(doc)); err != nil {
		return err
	}
	s.metrics.Write(len(doc))
	s.log.Debug("write", "key", key, "bytes", len(doc))
	return nil
}

// namespaceKeys lists the physical keys that start with the prefix.
func (s *Store) namespaceKeys() ([]string, error) {
	if !s.IsSupported() {
		return nil, jstore.ErrUnsupported
	}

	all, err := s.allKeys()
	if err != nil {
		return nil, err
	}

	keys := all[:0]
	for _, k := range all {
		if codec.HasNamespace(s.prefix, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) allKeys() ([]string, error) {
	if p, ok := s.port.(interface{ Keys() ([]string, error) }); ok {
		return p.Keys()
	}

	n, err := s.port.Length()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k, ok, err := s.port.Key(i)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// encodeObject marshals value and checks that the result is a JSON object.
func encodeObject(value any) ([]byte, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: expects a JSON object, got nil", jstore.ErrInvalidArgument)
	}
	if _, ok := value.(string); ok {
		return nil, jstore.ErrStringValue
	}

	doc, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jstore.ErrInvalidArgument, err)
	}

	switch bytes.TrimLeft(doc, " \t\r\n")[0] {
	case '{':
		return doc, nil
	case '"':
		return nil, jstore.ErrStringValue
	default:
		return nil, fmt.Errorf("%w: expects a JSON object, got %T", jstore.ErrInvalidArgument, value)
	}
}

func decode(raw string) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("not a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after record")
	}

	return rec, nil
}

func fieldsOf(doc []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// operation is one RFC 6902 JSON Patch operation.
type operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// merge shallow-merges the fields of doc into cur with one "add" operation per
// top-level field.
func merge(cur, doc []byte) ([]byte, error) {
	fields, err := fieldsOf(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jstore.ErrInvalidArgument, err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	ops := make([]operation, 0, len(names))
	for _, name := range names {
		ops = append(ops, operation{Op: "add", Path: pointer(name), Value: fields[name]})
	}

	return apply(cur, ops)
}

func apply(doc []byte, ops []operation) ([]byte, error) {
	if len(ops) == 0 {
		return doc, nil
	}

	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	out, err := patch.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}
	return out, nil
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// pointer returns the JSON Pointer addressing a top-level field.
func pointer(field string) string {
	return "/" + pointerEscaper.Replace(field)
}
