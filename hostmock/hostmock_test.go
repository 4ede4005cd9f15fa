package hostmock

import (
	"bytes"
	"errors"
	"testing"

	proto "github.com/tarmac-project/protobuf-go/sdk/kvstore"
)

type TestCase struct {
	name       string
	cfg        Config
	payload    []byte
	namespace  string
	capability string
	function   string
	want       []byte
	wantErr    error
}

var ErrMockError = errors.New("Mock error")

func TestHostMock(t *testing.T) {
	tt := []TestCase{
		{
			name: "Unrouted Response",
			cfg: Config{
				ExpectedNamespace:  "test",
				ExpectedCapability: "test",
				PayloadValidator:   func(_ []byte) error { return nil },
				Response:           func() []byte { return []byte("test") },
			},
			namespace:  "test",
			capability: "test",
			function:   "anything",
			payload:    []byte("test"),
			want:       []byte("test"),
		},
		{
			name: "Fail With Custom Error",
			cfg: Config{
				Error:    ErrMockError,
				Fail:     true,
				Response: func() []byte { return []byte("test") },
			},
			namespace:  "test",
			capability: "test",
			function:   "test",
			wantErr:    ErrMockError,
		},
		{
			name:       "Default Fail Error",
			cfg:        Config{Fail: true},
			namespace:  "test",
			capability: "test",
			function:   "test",
			wantErr:    ErrOperationFailed,
		},
		{
			name:       "Nil Response Returns Nil",
			cfg:        Config{ExpectedNamespace: "test"},
			namespace:  "test",
			capability: "test",
			function:   "test",
			payload:    []byte("ok"),
		},
		{
			name: "Invalid Payload",
			cfg: Config{
				PayloadValidator: func(payload []byte) error {
					if string(payload) != "valid" {
						return ErrMockError
					}
					return nil
				},
			},
			function: "test",
			payload:  []byte("invalid"),
			wantErr:  ErrMockError,
		},
		{
			name:       "Unexpected Namespace",
			cfg:        Config{ExpectedNamespace: "expected"},
			namespace:  "test",
			capability: "test",
			function:   "test",
			wantErr:    ErrUnexpectedNamespace,
		},
		{
			name:       "Unexpected Capability",
			cfg:        Config{ExpectedCapability: "expected"},
			namespace:  "test",
			capability: "test",
			function:   "test",
			wantErr:    ErrUnexpectedCapability,
		},
		{
			name: "Routed Function",
			cfg: Config{
				Functions: map[string]Handler{
					"echo": func(p []byte) ([]byte, error) { return p, nil },
				},
			},
			function: "echo",
			payload:  []byte("hello"),
			want:     []byte("hello"),
		},
		{
			name: "Unrouted Function",
			cfg: Config{
				Functions: map[string]Handler{
					"echo": func(p []byte) ([]byte, error) { return p, nil },
				},
			},
			function: "other",
			wantErr:  ErrUnexpectedFunction,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New Mock instance creation failed: %v", err)
			}

			got, err := mock.HostCall(tc.namespace, tc.capability, tc.function, tc.payload)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Mock call returned unexpected error: got %v, want %v", err, tc.wantErr)
			}

			if !bytes.Equal(got, tc.want) {
				t.Fatalf("Mock call returned unexpected response: got %v, want %v", got, tc.want)
			}

			calls := mock.Calls()
			if len(calls) != 1 || calls[0].Function != tc.function {
				t.Fatalf("expected one recorded call to %q, got %+v", tc.function, calls)
			}
		})
	}
}

func TestKVStore(t *testing.T) {
	s := NewKVStore("tarmac")

	call := func(fn string, payload []byte) []byte {
		t.Helper()
		b, err := s.HostCall("tarmac", "kvstore", fn, payload)
		if err != nil {
			t.Fatalf("%s returned error: %v", fn, err)
		}
		return b
	}

	for _, k := range []string{"b", "a", "c"} {
		req, _ := (&proto.KVStoreSet{Key: k, Data: []byte("v-" + k)}).MarshalVT()
		var resp proto.KVStoreSetResponse
		if err := resp.UnmarshalVT(call("set", req)); err != nil {
			t.Fatalf("unmarshal set response: %v", err)
		}
		if resp.GetStatus().GetCode() != 200 {
			t.Fatalf("unexpected set status %v", resp.GetStatus())
		}
	}

	t.Run("Get", func(t *testing.T) {
		req, _ := (&proto.KVStoreGet{Key: "a"}).MarshalVT()
		var resp proto.KVStoreGetResponse
		if err := resp.UnmarshalVT(call("get", req)); err != nil {
			t.Fatalf("unmarshal get response: %v", err)
		}
		if string(resp.GetData()) != "v-a" {
			t.Fatalf("unexpected data %q", resp.GetData())
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		req, _ := (&proto.KVStoreGet{Key: "zz"}).MarshalVT()
		var resp proto.KVStoreGetResponse
		if err := resp.UnmarshalVT(call("get", req)); err != nil {
			t.Fatalf("unmarshal get response: %v", err)
		}
		if resp.GetStatus().GetCode() != 404 {
			t.Fatalf("expected 404, got %v", resp.GetStatus())
		}
	})

	t.Run("Keys In Insertion Order", func(t *testing.T) {
		req, _ := (&proto.KVStoreKeys{ReturnProto: true}).MarshalVT()
		var resp proto.KVStoreKeysResponse
		if err := resp.UnmarshalVT(call("keys", req)); err != nil {
			t.Fatalf("unmarshal keys response: %v", err)
		}
		want := []string{"b", "a", "c"}
		got := resp.GetKeys()
		if len(got) != len(want) {
			t.Fatalf("unexpected keys %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("unexpected keys %v, want %v", got, want)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		req, _ := (&proto.KVStoreDelete{Key: "a"}).MarshalVT()
		call("delete", req)
		if s.Len() != 2 {
			t.Fatalf("expected 2 keys after delete, got %d", s.Len())
		}

		var resp proto.KVStoreDeleteResponse
		if err := resp.UnmarshalVT(call("delete", req)); err != nil {
			t.Fatalf("unmarshal delete response: %v", err)
		}
		if resp.GetStatus().GetCode() != 404 {
			t.Fatalf("expected 404 on second delete, got %v", resp.GetStatus())
		}
	})

	t.Run("Wrong Namespace", func(t *testing.T) {
		if _, err := s.HostCall("other", "kvstore", "keys", nil); !errors.Is(err, ErrUnexpectedNamespace) {
			t.Fatalf("expected ErrUnexpectedNamespace, got %v", err)
		}
	})
}
