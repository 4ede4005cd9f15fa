package metrics

import "fmt"

// Metric names reported by the channel and record store.
const (
	NameFired           = "jstore_fired"
	NameDispatched      = "jstore_dispatched"
	NameHandlerFailures = "jstore_handler_failures"
	NameWatchers        = "jstore_watchers"
	NameWrites          = "jstore_writes"
	NameCorruptReads    = "jstore_corrupt_reads"
	NameRecordBytes     = "jstore_record_bytes"
)

// ChannelInstruments groups the metrics emitted by a command channel.
// A nil *ChannelInstruments discards every update.
type ChannelInstruments struct {
	Fired           *Counter
	Dispatched      *Counter
	HandlerFailures *Counter
	Watchers        *Gauge
}

// NewChannelInstruments registers the channel metrics on c.
func NewChannelInstruments(c Client) (*ChannelInstruments, error) {
	var (
		i   ChannelInstruments
		err error
	)

	if i.Fired, err = c.NewCounter(NameFired); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameFired, err)
	}
	if i.Dispatched, err = c.NewCounter(NameDispatched); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameDispatched, err)
	}
	if i.HandlerFailures, err = c.NewCounter(NameHandlerFailures); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameHandlerFailures, err)
	}
	if i.Watchers, err = c.NewGauge(NameWatchers); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameWatchers, err)
	}

	return &i, nil
}

// Fire counts one fired command.
func (i *ChannelInstruments) Fire() {
	if i != nil {
		i.Fired.Inc()
	}
}

// Dispatch counts one handler invocation.
func (i *ChannelInstruments) Dispatch() {
	if i != nil {
		i.Dispatched.Inc()
	}
}

// HandlerFailure counts one handler that returned an error or panicked.
func (i *ChannelInstruments) HandlerFailure() {
	if i != nil {
		i.HandlerFailures.Inc()
	}
}

// WatcherAdded raises the registered watcher gauge.
func (i *ChannelInstruments) WatcherAdded() {
	if i != nil {
		i.Watchers.Inc()
	}
}

// WatchersRemoved lowers the registered watcher gauge by n.
func (i *ChannelInstruments) WatchersRemoved(n int) {
	if i == nil {
		return
	}
	for ; n > 0; n-- {
		i.Watchers.Dec()
	}
}

// RecordInstruments groups the metrics emitted by a record store.
// A nil *RecordInstruments discards every update.
type RecordInstruments struct {
	Writes       *Counter
	CorruptReads *Counter
	RecordBytes  *Histogram
}

// NewRecordInstruments registers the record store metrics on c.
func NewRecordInstruments(c Client) (*RecordInstruments, error) {
	var (
		i   RecordInstruments
		err error
	)

	if i.Writes, err = c.NewCounter(NameWrites); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameWrites, err)
	}
	if i.CorruptReads, err = c.NewCounter(NameCorruptReads); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameCorruptReads, err)
	}
	if i.RecordBytes, err = c.NewHistogram(NameRecordBytes); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", NameRecordBytes, err)
	}

	return &i, nil
}

// Write counts one record write of size bytes.
func (i *RecordInstruments) Write(size int) {
	if i == nil {
		return
	}
	i.Writes.Inc()
	i.RecordBytes.Observe(float64(size))
}

// CorruptRead counts one record that failed to decode.
func (i *RecordInstruments) CorruptRead() {
	if i != nil {
		i.CorruptReads.Inc()
	}
}
