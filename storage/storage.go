package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/kv"
)

// Event describes one change observed by an attached context. A nil value
// pointer means absent. Clear produces an event with an empty Key.
type Event struct {
	Key      string
	OldValue *string
	NewValue *string

	// Source is the id of the writing context, empty for injected changes.
	Source string
}

// Listener receives change events.
type Listener func(Event)

// Port is the synchronous key-value surface with change notification seen by
// one execution context.
type Port interface {
	// GetItem returns the value stored under key and whether it exists.
	GetItem(key string) (string, bool, error)

	// SetItem stores value under key.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(key string) error

	// Clear deletes every key in the origin.
	Clear() error

	// Length reports the number of keys in the origin.
	Length() (int, error)

	// Key returns the key at index in native enumeration order.
	Key(index int) (string, bool, error)

	// Subscribe registers fn for changes made by other contexts and returns a
	// function that cancels the subscription.
	Subscribe(fn Listener) (cancel func())
}

// Origin is a key-value substrate shared by every attached context.
type Origin struct {
	backend kv.KV

	// mu serializes mutations so that every context observes them in write order.
	mu sync.Mutex

	cmu      sync.RWMutex
	contexts map[string]*Context
}

// NewOrigin wraps backend. A nil backend produces an unsupported origin.
func NewOrigin(backend kv.KV) *Origin {
	return &Origin{backend: backend, contexts: make(map[string]*Context)}
}

// Supported reports whether the origin has a usable backend.
func (o *Origin) Supported() bool {
	return o != nil && o.backend != nil
}

// Attach creates a new execution context on the origin.
func (o *Origin) Attach() *Context {
	c := &Context{
		id:     uuid.NewString(),
		origin: o,
		wake:   make(chan struct{}, 1),
	}

	o.cmu.Lock()
	o.contexts[c.id] = c
	o.cmu.Unlock()

	return c
}

// Inject publishes a change that happened outside this process to every
// attached context.
func (o *Origin) Inject(key string, oldValue, newValue *string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publish(Event{Key: key, OldValue: oldValue, NewValue: newValue}, "")
}

// Close releases the backend.
func (o *Origin) Close() error {
	if !o.Supported() {
		return nil
	}
	return o.backend.Close()
}

// publish queues ev on every other context that currently listens.
// Callers hold o.mu.
func (o *Origin) publish(ev Event, from string) {
	ev.Source = from

	o.cmu.RLock()
	defer o.cmu.RUnlock()

	for id, c := range o.contexts {
		if id == from {
			continue
		}
		c.enqueue(ev)
	}
}

func (o *Origin) detach(id string) {
	o.cmu.Lock()
	delete(o.contexts, id)
	o.cmu.Unlock()
}

func (o *Origin) get(key string) (*string, error) {
	b, err := o.backend.Get(key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	v := string(b)
	return &v, nil
}

type subscription struct {
	id uint64
	fn Listener
}

// Context is one execution context attached to an Origin. It implements Port.
type Context struct {
	id     string
	origin *Origin

	mu        sync.Mutex
	nextSub   uint64
	listeners []subscription
	queue     []Event
	detached  bool
	wake      chan struct{}
}

// Ensure Context satisfies Port at compile time.
var _ Port = (*Context)(nil)

// ID returns the context id.
func (c *Context) ID() string { return c.id }

// Supported reports whether the underlying origin is usable.
func (c *Context) Supported() bool { return c.origin.Supported() }

// GetItem implements Port.
func (c *Context) GetItem(key string) (string, bool, error) {
	if !c.Supported() {
		return "", false, jstore.ErrUnsupported
	}

	v, err := c.origin.get(key)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// SetItem implements Port. Writing the value already stored notifies nobody.
func (c *Context) SetItem(key, value string) error {
	if !c.Supported() {
		return jstore.ErrUnsupported
	}

	o := c.origin
	o.mu.Lock()
	defer o.mu.Unlock()

	old, err := o.get(key)
	if err != nil {
		return err
	}

	if err := o.backend.Set(key, []byte(value)); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	if old == nil || *old != value {
		o.publish(Event{Key: key, OldValue: old, NewValue: &value}, c.id)
	}
	return nil
}

// RemoveItem implements Port.
func (c *Context) RemoveItem(key string) error {
	if !c.Supported() {
		return jstore.ErrUnsupported
	}

	o := c.origin
	o.mu.Lock()
	defer o.mu.Unlock()

	old, err := o.get(key)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}

	if err := o.backend.Delete(key); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}

	o.publish(Event{Key: key, OldValue: old}, c.id)
	return nil
}

// Clear implements Port.
func (c *Context) Clear() error {
	if !c.Supported() {
		return jstore.ErrUnsupported
	}

	o := c.origin
	o.mu.Lock()
	defer o.mu.Unlock()

	keys, err := o.backend.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	for _, k := range keys {
		if err := o.backend.Delete(k); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
			return fmt.Errorf("failed to remove %q: %w", k, err)
		}
	}

	if len(keys) > 0 {
		o.publish(Event{}, c.id)
	}
	return nil
}

// Length implements Port.
func (c *Context) Length() (int, error) {
	keys, err := c.keys()
	return len(keys), err
}

// Key implements Port.
func (c *Context) Key(index int) (string, bool, error) {
	keys, err := c.keys()
	if err != nil {
		return "", false, err
	}
	if index < 0 || index >= len(keys) {
		return "", false, nil
	}
	return keys[index], true, nil
}

// Keys returns every key in native enumeration order.
func (c *Context) Keys() ([]string, error) {
	return c.keys()
}

func (c *Context) keys() ([]string, error) {
	if !c.Supported() {
		return nil, jstore.ErrUnsupported
	}
	keys, err := c.origin.backend.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Subscribe implements Port.
func (c *Context) Subscribe(fn Listener) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.listeners = append(c.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.listeners {
				if s.id == id {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueue stores ev for later delivery. Contexts without listeners, or that
// have been detached, miss the event.
func (c *Context) enqueue(ev Event) {
	c.mu.Lock()
	if c.detached || len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Pending reports the number of queued, undelivered events.
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Flush delivers every queued event to the current listeners, in order, on
// the calling goroutine. It returns the number of events delivered.
func (c *Context) Flush() int {
	c.mu.Lock()
	events := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, ev := range events {
		c.mu.Lock()
		subs := append([]subscription(nil), c.listeners...)
		c.mu.Unlock()

		for _, s := range subs {
			s.fn(ev)
		}
	}

	return len(events)
}

// Run is the context's event loop. It delivers events as they arrive until
// ctx is done or the context is detached.
func (c *Context) Run(ctx context.Context) error {
	for {
		c.Flush()

		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
		}

		c.mu.Lock()
		detached := c.detached
		c.mu.Unlock()
		if detached {
			return nil
		}
	}
}

// Detach ends the context. Queued events are dropped, listeners removed, and
// the origin stops publishing to it.
func (c *Context) Detach() {
	c.origin.detach(c.id)

	c.mu.Lock()
	c.detached = true
	c.queue = nil
	c.listeners = nil
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}
