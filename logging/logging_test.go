package logging

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/hostmock"
)

func TestNew(t *testing.T) {
	t.Parallel()

	customHostCall := func(string, string, string, []byte) ([]byte, error) {
		return nil, nil
	}

	tt := []struct {
		name        string
		namespace   string
		hostCall    func(string, string, string, []byte) ([]byte, error)
		wantNS      string
		wantHostPtr uintptr
	}{
		{
			name:      "custom namespace",
			namespace: "custom",
			wantNS:    "custom",
		},
		{
			name:        "default namespace with override",
			hostCall:    customHostCall,
			wantNS:      jstore.DefaultHostNamespace,
			wantHostPtr: reflect.ValueOf(customHostCall).Pointer(),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(Config{SDKConfig: jstore.RuntimeConfig{HostNamespace: tc.namespace}, HostCall: tc.hostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			impl, ok := c.(*client)
			if !ok {
				t.Fatalf("expected *client implementation, got %T", c)
			}

			if impl.namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNS, impl.namespace)
			}

			if tc.wantHostPtr != 0 {
				if got := reflect.ValueOf(impl.hostCall).Pointer(); got != tc.wantHostPtr {
					t.Fatalf("hostcall pointer mismatch: want %v, got %v", tc.wantHostPtr, got)
				}
			}
		})
	}
}

func TestClientMethods(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		call func(Client)
		fn   string
		fail bool
	}{
		{name: "Info", call: func(c Client) { c.Info("msg") }, fn: "Info"},
		{name: "Warn", call: func(c Client) { c.Warn("msg") }, fn: "Warn"},
		{name: "Error", call: func(c Client) { c.Error("msg") }, fn: "Error"},
		{name: "Debug", call: func(c Client) { c.Debug("msg") }, fn: "Debug"},
		{name: "Trace", call: func(c Client) { c.Trace("msg") }, fn: "Trace"},
		{name: "host failure is swallowed", call: func(c Client) { c.Info("msg") }, fn: "Info", fail: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := hostmock.New(hostmock.Config{
				ExpectedNamespace:  jstore.DefaultHostNamespace,
				ExpectedCapability: capabilityName,
				Fail:               tc.fail,
			})
			if err != nil {
				t.Fatalf("failed to create hostmock: %v", err)
			}

			c, err := New(Config{HostCall: mock.HostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			tc.call(c)

			calls := mock.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected one host call, got %d", len(calls))
			}
			if calls[0].Function != tc.fn || string(calls[0].Payload) != "msg" {
				t.Fatalf("unexpected call: %+v", calls[0])
			}
		})
	}
}

type entry struct {
	level string
	msg   string
}

type captureClient struct {
	mu      sync.Mutex
	entries []entry
}

func (c *captureClient) add(level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry{level, msg})
}

func (c *captureClient) Info(m string)  { c.add("Info", m) }
func (c *captureClient) Warn(m string)  { c.add("Warn", m) }
func (c *captureClient) Error(m string) { c.add("Error", m) }
func (c *captureClient) Debug(m string) { c.add("Debug", m) }
func (c *captureClient) Trace(m string) { c.add("Trace", m) }

func TestHandler(t *testing.T) {
	t.Parallel()

	capture := &captureClient{}
	logger := slog.New(NewHandler(capture, slog.LevelDebug - 4))

	logger.Info("fired", "command", "reload")
	logger.With("ctx", "a1").WithGroup("dispatch").Warn("handler failed", "index", 2)
	logger.Error("boom", slog.Group("req", "op", "get"))
	logger.Debug("watch")
	logger.Log(context.Background(), slog.LevelDebug-4, "trace")

	want := []entry{
		{"Info", "fired command=reload"},
		{"Warn", "handler failed ctx=a1 dispatch.index=2"},
		{"Error", "boom req.op=get"},
		{"Debug", "watch"},
		{"Trace", "trace"},
	}

	if !reflect.DeepEqual(capture.entries, want) {
		t.Fatalf("entries mismatch:\nwant %+v\ngot  %+v", want, capture.entries)
	}
}

func TestHandlerLevel(t *testing.T) {
	t.Parallel()

	capture := &captureClient{}
	logger := slog.New(NewHandler(capture, nil))

	logger.Debug("dropped")
	logger.Info("kept")

	if len(capture.entries) != 1 || capture.entries[0].msg != "kept" {
		t.Fatalf("unexpected entries: %+v", capture.entries)
	}
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	capture := &captureClient{}
	logger := slog.New(NewHandler(capture, slog.LevelDebug))

	Diagnostics(jstore.RuntimeConfig{}, logger).Info("quiet")
	Diagnostics(jstore.RuntimeConfig{Debug: true}, nil).Info("quiet")
	Diagnostics(jstore.RuntimeConfig{Debug: true}, logger).Info("loud")

	if len(capture.entries) != 1 || capture.entries[0].msg != "loud" {
		t.Fatalf("unexpected entries: %+v", capture.entries)
	}
}
