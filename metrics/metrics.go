package metrics

import (
	"errors"
	"regexp"

	jstore "github.com/tarmac-project/jstore"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

var (
	// ErrInvalidMetricName indicates a metric name that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// isMetricNameValid validates metric names using the host's naming rules.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:][a-zA-Z0-9_:]*$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Client defines the metrics capability interface.
type Client interface {
	// NewCounter creates a named counter metric handle.
	NewCounter(name string) (*Counter, error)

	// NewGauge creates a named gauge metric handle.
	NewGauge(name string) (*Gauge, error)

	// NewHistogram creates a named histogram metric handle.
	NewHistogram(name string) (*Histogram, error)
}

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the host namespace used for host calls.
	SDKConfig jstore.RuntimeConfig

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall
}

// HostMetrics is the metrics capability client implementation.
type HostMetrics struct {
	namespace string
	hostCall  HostCall
}

// handle is the state shared by every metric kind.
type handle struct {
	name      string
	namespace string
	hostCall  HostCall
}

func (h handle) send(fn string, payload []byte) {
	_, _ = h.hostCall(h.namespace, capabilityName, fn, payload)
}

// Counter is a named counter metric handle. A nil Counter discards updates.
type Counter struct{ handle }

// Gauge is a named gauge metric handle. A nil Gauge discards updates.
type Gauge struct{ handle }

// Histogram is a named histogram metric handle. A nil Histogram discards updates.
type Histogram struct{ handle }

// Ensure HostMetrics satisfies the Client interface at compile time.
var _ Client = (*HostMetrics)(nil)

// New creates a metrics client with namespace defaults and optional host-call override.
func New(config Config) (*HostMetrics, error) {
	runtime := config.SDKConfig.WithDefaults()

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &HostMetrics{namespace: runtime.HostNamespace, hostCall: hostCall}, nil
}

func (c *HostMetrics) handle(name string) (handle, error) {
	if !isMetricNameValid.MatchString(name) {
		return handle{}, ErrInvalidMetricName
	}
	return handle{name: name, namespace: c.namespace, hostCall: c.hostCall}, nil
}

// NewCounter creates a named counter metric handle.
func (c *HostMetrics) NewCounter(name string) (*Counter, error) {
	h, err := c.handle(name)
	if err != nil {
		return nil, err
	}
	return &Counter{h}, nil
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	if c == nil {
		return
	}
	payload, err := (&proto.MetricsCounter{Name: c.name}).MarshalVT()
	if err != nil {
		return
	}
	c.send(fnCounter, payload)
}

// NewGauge creates a named gauge metric handle.
func (c *HostMetrics) NewGauge(name string) (*Gauge, error) {
	h, err := c.handle(name)
	if err != nil {
		return nil, err
	}
	return &Gauge{h}, nil
}

// Inc increments the gauge by one.
func (g *Gauge) Inc() {
	g.emit(actionInc)
}

// Dec decrements the gauge by one.
func (g *Gauge) Dec() {
	g.emit(actionDec)
}

// emit sends a gauge action update to the host runtime as a best-effort call.
func (g *Gauge) emit(action string) {
	if g == nil {
		return
	}
	payload, err := (&proto.MetricsGauge{Name: g.name, Action: action}).MarshalVT()
	if err != nil {
		return
	}
	g.send(fnGauge, payload)
}

// NewHistogram creates a named histogram metric handle.
func (c *HostMetrics) NewHistogram(name string) (*Histogram, error) {
	h, err := c.handle(name)
	if err != nil {
		return nil, err
	}
	return &Histogram{h}, nil
}

// Observe records a value for the histogram.
func (h *Histogram) Observe(value float64) {
	if h == nil {
		return
	}
	payload, err := (&proto.MetricsHistogram{Name: h.name, Value: value}).MarshalVT()
	if err != nil {
		return
	}
	h.send(fnHistogram, payload)
}
