package hostmock

import (
	"sync"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/kvstore"
)

// KVStore is an in-memory host implementation of the kvstore capability.
// Keys enumerate in insertion order.
type KVStore struct {
	mock *Mock

	mu    sync.Mutex
	data  map[string][]byte
	order []string
}

// NewKVStore creates a kvstore host that only answers calls for namespace.
func NewKVStore(namespace string) *KVStore {
	s := &KVStore{data: make(map[string][]byte)}
	s.mock, _ = New(Config{
		ExpectedNamespace:  namespace,
		ExpectedCapability: "kvstore",
		Functions: map[string]Handler{
			"get":    s.get,
			"set":    s.set,
			"delete": s.delete,
			"keys":   s.keys,
		},
	})
	return s
}

// HostCall dispatches a waPC call to the emulated capability.
func (s *KVStore) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	return s.mock.HostCall(namespace, capability, function, payload)
}

// Calls returns the recorded host invocations.
func (s *KVStore) Calls() []Call { return s.mock.Calls() }

// Len reports the number of stored keys.
func (s *KVStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func status(code int32, msg string) *sdkproto.Status {
	return &sdkproto.Status{Code: code, Status: msg}
}

func (s *KVStore) get(payload []byte) ([]byte, error) {
	var req proto.KVStoreGet
	if err := req.UnmarshalVT(payload); err != nil || req.GetKey() == "" {
		return (&proto.KVStoreGetResponse{Status: status(400, "Bad Input")}).MarshalVT()
	}

	s.mu.Lock()
	v, ok := s.data[req.GetKey()]
	s.mu.Unlock()

	if !ok {
		return (&proto.KVStoreGetResponse{Status: status(404, "Not Found")}).MarshalVT()
	}
	return (&proto.KVStoreGetResponse{Status: status(200, "OK"), Data: v}).MarshalVT()
}

func (s *KVStore) set(payload []byte) ([]byte, error) {
	var req proto.KVStoreSet
	if err := req.UnmarshalVT(payload); err != nil || req.GetKey() == "" {
		return (&proto.KVStoreSetResponse{Status: status(400, "Bad Input")}).MarshalVT()
	}

	s.mu.Lock()
	if _, ok := s.data[req.GetKey()]; !ok {
		s.order = append(s.order, req.GetKey())
	}
	s.data[req.GetKey()] = append([]byte{}, req.GetData()...)
	s.mu.Unlock()

	return (&proto.KVStoreSetResponse{Status: status(200, "OK")}).MarshalVT()
}

func (s *KVStore) delete(payload []byte) ([]byte, error) {
	var req proto.KVStoreDelete
	if err := req.UnmarshalVT(payload); err != nil || req.GetKey() == "" {
		return (&proto.KVStoreDeleteResponse{Status: status(400, "Bad Input")}).MarshalVT()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[req.GetKey()]; !ok {
		return (&proto.KVStoreDeleteResponse{Status: status(404, "Not Found")}).MarshalVT()
	}
	delete(s.data, req.GetKey())
	for i, k := range s.order {
		if k == req.GetKey() {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return (&proto.KVStoreDeleteResponse{Status: status(200, "OK")}).MarshalVT()
}

func (s *KVStore) keys(_ []byte) ([]byte, error) {
	s.mu.Lock()
	keys := append([]string(nil), s.order...)
	s.mu.Unlock()

	return (&proto.KVStoreKeysResponse{Status: status(200, "OK"), Keys: keys}).MarshalVT()
}
