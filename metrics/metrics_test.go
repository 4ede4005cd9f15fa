package metrics

import (
	"errors"
	"reflect"
	"testing"

	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/hostmock"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
)

func TestNew(t *testing.T) {
	t.Parallel()

	customHostCall := func(string, string, string, []byte) ([]byte, error) {
		return nil, nil
	}

	tt := []struct {
		name        string
		namespace   string
		hostCall    HostCall
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

			if c.namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNS, c.namespace)
			}

			if tc.wantHostPtr != 0 {
				if got := reflect.ValueOf(c.hostCall).Pointer(); got != tc.wantHostPtr {
					t.Fatalf("hostcall pointer mismatch: want %v, got %v", tc.wantHostPtr, got)
				}
			}
		})
	}
}

func TestMetricConstructors(t *testing.T) {
	t.Parallel()

	c, err := New(Config{
		HostCall: func(string, string, string, []byte) ([]byte, error) {
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	counter := func(name string) error {
		_, err := c.NewCounter(name)
		return err
	}
	gauge := func(name string) error {
		_, err := c.NewGauge(name)
		return err
	}
	histogram := func(name string) error {
		_, err := c.NewHistogram(name)
		return err
	}

	tt := []struct {
		name        string
		constructor func(string) error
		metricName  string
		wantErr     error
	}{
		{name: "counter valid", constructor: counter, metricName: NameFired},
		{name: "gauge valid", constructor: gauge, metricName: NameWatchers},
		{name: "histogram valid", constructor: histogram, metricName: NameRecordBytes},
		{name: "counter empty name", constructor: counter, metricName: "", wantErr: ErrInvalidMetricName},
		{name: "gauge whitespace name", constructor: gauge, metricName: " \n\t ", wantErr: ErrInvalidMetricName},
		{name: "histogram dashed name", constructor: histogram, metricName: "record-bytes", wantErr: ErrInvalidMetricName},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotErr := tc.constructor(tc.metricName)
			if !errors.Is(gotErr, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, gotErr)
			}
		})
	}
}

func TestCounterInc(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		fail bool
	}{
		{name: "delivered"},
		{name: "host failure is swallowed", fail: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := hostmock.New(hostmock.Config{
				ExpectedNamespace:  "tarmac",
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

			counter, err := c.NewCounter(NameFired)
			if err != nil {
				t.Fatalf("NewCounter returned error: %v", err)
			}
			counter.Inc()

			calls := mock.Calls()
			if len(calls) != 1 || calls[0].Function != fnCounter {
				t.Fatalf("expected one %s call, got %+v", fnCounter, calls)
			}

			var req proto.MetricsCounter
			if err := req.UnmarshalVT(calls[0].Payload); err != nil {
				t.Fatalf("failed to decode payload: %v", err)
			}
			if req.GetName() != NameFired {
				t.Fatalf("metric name mismatch: got %q", req.GetName())
			}
		})
	}
}

func TestGaugeActions(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name           string
		invoke         func(*Gauge)
		expectedAction string
	}{
		{name: "inc", invoke: (*Gauge).Inc, expectedAction: actionInc},
		{name: "dec", invoke: (*Gauge).Dec, expectedAction: actionDec},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := hostmock.New(hostmock.Config{
				ExpectedCapability: capabilityName,
				Functions: map[string]hostmock.Handler{
					fnGauge: func(payload []byte) ([]byte, error) {
						var req proto.MetricsGauge
						if err := req.UnmarshalVT(payload); err != nil {
							return nil, err
						}
						if req.GetName() != NameWatchers {
							return nil, errors.New("metric name mismatch")
						}
						if req.GetAction() != tc.expectedAction {
							return nil, errors.New("action mismatch")
						}
						return nil, nil
					},
				},
			})
			if err != nil {
				t.Fatalf("failed to create hostmock: %v", err)
			}

			c, err := New(Config{HostCall: mock.HostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			gauge, err := c.NewGauge(NameWatchers)
			if err != nil {
				t.Fatalf("NewGauge returned error: %v", err)
			}

			tc.invoke(gauge)

			if n := len(mock.Calls()); n != 1 {
				t.Fatalf("expected one host call, got %d", n)
			}
		})
	}
}

func TestHistogramObserve(t *testing.T) {
	t.Parallel()

	mock, err := hostmock.New(hostmock.Config{
		ExpectedCapability: capabilityName,
		Functions: map[string]hostmock.Handler{
			fnHistogram: func(payload []byte) ([]byte, error) {
				var req proto.MetricsHistogram
				if err := req.UnmarshalVT(payload); err != nil {
					return nil, err
				}
				if req.GetName() != NameRecordBytes || req.GetValue() != 42.5 {
					return nil, errors.New("histogram mismatch")
				}
				return nil, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to create hostmock: %v", err)
	}

	c, err := New(Config{HostCall: mock.HostCall})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	histogram, err := c.NewHistogram(NameRecordBytes)
	if err != nil {
		t.Fatalf("NewHistogram returned error: %v", err)
	}

	histogram.Observe(42.5)
}

func TestNilHandles(t *testing.T) {
	t.Parallel()

	var (
		c *Counter
		g *Gauge
		h *Histogram
	)
	c.Inc()
	g.Inc()
	g.Dec()
	h.Observe(1)

	var ci *ChannelInstruments
	ci.Fire()
	ci.Dispatch()
	ci.HandlerFailure()
	ci.WatcherAdded()
	ci.WatchersRemoved(3)

	var ri *RecordInstruments
	ri.Write(10)
	ri.CorruptRead()
}

func TestInstruments(t *testing.T) {
	t.Parallel()

	mock, err := hostmock.New(hostmock.Config{ExpectedCapability: capabilityName})
	if err != nil {
		t.Fatalf("failed to create hostmock: %v", err)
	}

	c, err := New(Config{HostCall: mock.HostCall})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ci, err := NewChannelInstruments(c)
	if err != nil {
		t.Fatalf("NewChannelInstruments returned error: %v", err)
	}
	ri, err := NewRecordInstruments(c)
	if err != nil {
		t.Fatalf("NewRecordInstruments returned error: %v", err)
	}

	ci.Fire()
	ci.Dispatch()
	ci.HandlerFailure()
	ci.WatcherAdded()
	ci.WatchersRemoved(2)
	ri.Write(128)
	ri.CorruptRead()

	want := []string{
		fnCounter, fnCounter, fnCounter,
		fnGauge, fnGauge, fnGauge,
		fnCounter, fnHistogram,
		fnCounter,
	}

	calls := mock.Calls()
	if len(calls) != len(want) {
		t.Fatalf("expected %d host calls, got %d", len(want), len(calls))
	}
	for i, fn := range want {
		if calls[i].Function != fn {
			t.Fatalf("call %d: want %s, got %s", i, fn, calls[i].Function)
		}
	}
}
