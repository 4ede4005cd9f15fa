package channel

import (
	"fmt"
	"log/slog"
	"sync"

	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/logging"
	"github.com/tarmac-project/jstore/metrics"
	"github.com/tarmac-project/jstore/storage"
)

// Event is passed to handlers when a watched command arrives.
type Event struct {
	// Command is the name that was fired.
	Command string

	// Storage is the change notification that carried the command.
	Storage storage.Event
}

// Handler reacts to a received command. Returned errors and panics are
// logged and never reach the firing context.
type Handler func(Event) error

// Descriptor describes a command to fire.
type Descriptor struct {
	Command string `json:"command" yaml:"command"`
}

// Observer is notified of channel activity, after a local fire and before
// handlers run for a received command.
type Observer interface {
	Fired(command string)
	Received(command string)
}

// Config controls how a Channel is wired.
type Config struct {
	// SDKConfig provides the debug toggle.
	SDKConfig jstore.RuntimeConfig

	// Port carries broadcasts between contexts. A nil Port produces an
	// unsupported Channel.
	Port storage.Port

	// Logger receives handler failures, and debug output when
	// SDKConfig.Debug is set.
	Logger *slog.Logger

	// Observer, when set, is told about fired and received commands.
	Observer Observer

	// Metrics, when set, counts fired and dispatched commands.
	Metrics *metrics.ChannelInstruments
}

// Channel broadcasts commands to other contexts attached to the same storage
// and dispatches commands broadcast by them to local handlers.
type Channel struct {
	port     storage.Port
	registry *Registry
	log      *slog.Logger
	failures *slog.Logger
	observer Observer
	metrics  *metrics.ChannelInstruments

	mu          sync.Mutex
	unsubscribe func()
}

// New creates a Channel with its own empty registry.
func New(cfg Config) (*Channel, error) {
	runtime := cfg.SDKConfig.WithDefaults()

	failures := cfg.Logger
	if failures == nil {
		failures = slog.New(slog.DiscardHandler)
	}

	return &Channel{
		port:     cfg.Port,
		registry: NewRegistry(),
		log:      logging.Diagnostics(runtime, cfg.Logger),
		failures: failures,
		observer: cfg.Observer,
		metrics:  cfg.Metrics,
	}, nil
}

// IsSupported reports whether the channel has usable storage.
func (c *Channel) IsSupported() bool {
	if c.port == nil {
		return false
	}
	if p, ok := c.port.(interface{ Supported() bool }); ok {
		return p.Supported()
	}
	return true
}

// Registry exposes the channel's registrations.
func (c *Channel) Registry() *Registry { return c.registry }

// Watch registers h for command. The first Watch subscribes the channel to
// storage notifications; later calls only add registrations.
func (c *Channel) Watch(command string, h Handler) error {
	if !c.IsSupported() {
		return jstore.ErrUnsupported
	}
	if command == "" {
		return fmt.Errorf("%w: command name is empty", jstore.ErrInvalidArgument)
	}
	if h == nil {
		return fmt.Errorf("%w: handler for %q is nil", jstore.ErrInvalidArgument, command)
	}

	c.registry.Add(command, h)
	c.metrics.WatcherAdded()

	c.mu.Lock()
	if c.unsubscribe == nil {
		c.unsubscribe = c.port.Subscribe(c.dispatch)
	}
	c.mu.Unlock()

	c.log.Debug("watch", "command", command)
	return nil
}

// Fire broadcasts d.Command to every other context. An empty command is
// ignored.
func (c *Channel) Fire(d Descriptor) error {
	if !c.IsSupported() {
		return jstore.ErrUnsupported
	}
	if d.Command == "" {
		return nil
	}

	if err := c.port.SetItem(jstore.BroadcastKey, d.Command); err != nil {
		return fmt.Errorf("failed to fire %q: %w", d.Command, err)
	}
	if err := c.port.RemoveItem(jstore.BroadcastKey); err != nil {
		return fmt.Errorf("failed to clear broadcast for %q: %w", d.Command, err)
	}

	c.metrics.Fire()
	if c.observer != nil {
		c.observer.Fired(d.Command)
	}

	c.log.Debug("fire", "command", d.Command)
	return nil
}

// FireCommand is Fire for a bare command name.
func (c *Channel) FireCommand(command string) error {
	return c.Fire(Descriptor{Command: command})
}

// Check reports whether command has at least one registration.
func (c *Channel) Check(command string) bool {
	ok := c.registry.Has(command)
	c.log.Debug("check", "command", command, "registered", ok)
	return ok
}

// Close removes every registration for command. The storage subscription
// stays active.
func (c *Channel) Close(command string) {
	n := c.registry.Remove(command)
	c.metrics.WatchersRemoved(n)
	c.log.Debug("close", "command", command, "removed", n)
}

// Shutdown removes every registration and cancels the storage subscription.
func (c *Channel) Shutdown() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.mu.Unlock()

	n := c.registry.Reset()
	c.metrics.WatchersRemoved(n)
	c.log.Debug("shutdown", "removed", n)
}

// dispatch handles one storage notification.
func (c *Channel) dispatch(ev storage.Event) {
	if ev.Key != jstore.BroadcastKey || ev.NewValue == nil {
		return
	}

	command := *ev.NewValue
	handlers := c.registry.Handlers(command)
	if len(handlers) == 0 {
		return
	}

	if c.observer != nil {
		c.observer.Received(command)
	}

	for i, h := range handlers {
		c.log.Debug("dispatch", "command", command, "index", i)
		c.metrics.Dispatch()

		if err := invoke(h, Event{Command: command, Storage: ev}); err != nil {
			c.metrics.HandlerFailure()
			c.failures.Warn("handler failed", "command", command, "index", i, "error", err)
		}
	}
}

// invoke runs h, turning a panic into an error.
func invoke(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ev)
}
