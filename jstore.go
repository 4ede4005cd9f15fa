package jstore

import (
	"fmt"
	"os"

	wapc "github.com/wapc/wapc-guest-tinygo"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPrefix is used when no explicit namespace prefix is provided.
	DefaultPrefix = "jStoreApp-"

	// DefaultHostNamespace is the Tarmac function namespace used for host callbacks.
	DefaultHostNamespace = "tarmac"

	// BroadcastKey is the reserved storage key carrying fired command names.
	// It is never namespaced.
	BroadcastKey = "cmd"
)

// Config provides configuration options for runtime initialization.
type Config struct {
	// Prefix scopes record keys to one application within a shared store.
	// If empty, DefaultPrefix is used.
	Prefix string `yaml:"prefix"`

	// Debug enables diagnostic logging of channel and record operations.
	Debug bool `yaml:"debug"`

	// TabStatus enables the "(inactive)" title marker on fire and receive.
	TabStatus bool `yaml:"tab_status"`

	// HostNamespace controls the namespace used for Tarmac host callbacks.
	// If empty, DefaultHostNamespace is used.
	HostNamespace string `yaml:"host_namespace"`

	// Handler, when set, is registered as the WebAssembly function entry point.
	Handler func([]byte) ([]byte, error) `yaml:"-"`
}

// RuntimeConfig carries configuration that is used during creation of components.
type RuntimeConfig struct {
	// Prefix is the namespace prefix applied to record keys.
	Prefix string

	// Debug enables diagnostic logging.
	Debug bool

	// TabStatus enables the inactive title marker.
	TabStatus bool

	// HostNamespace is the Tarmac namespace used to scope host interactions.
	HostNamespace string
}

// Runtime represents an initialized configuration snapshot.
type Runtime struct {
	runtime RuntimeConfig
	handler func([]byte) ([]byte, error)
}

// New validates the configuration, applies defaults and, when a handler is
// configured, registers it with waPC.
func New(config Config) (*Runtime, error) {
	cfg := RuntimeConfig{
		Prefix:        DefaultPrefix,
		Debug:         config.Debug,
		TabStatus:     config.TabStatus,
		HostNamespace: DefaultHostNamespace,
	}

	if config.Prefix != "" {
		cfg.Prefix = config.Prefix
	}
	if config.HostNamespace != "" {
		cfg.HostNamespace = config.HostNamespace
	}

	if cfg.Prefix == BroadcastKey {
		return nil, fmt.Errorf("%w: prefix %q collides with the broadcast key", ErrInvalidArgument, cfg.Prefix)
	}

	rt := &Runtime{runtime: cfg, handler: config.Handler}

	if rt.handler != nil {
		wapc.RegisterFunction("handler", rt.handler)
	}

	return rt, nil
}

// Config returns the current runtime configuration snapshot.
func (r *Runtime) Config() RuntimeConfig { return r.runtime }

// WithDefaults fills zero-valued fields of a RuntimeConfig with package defaults.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.HostNamespace == "" {
		c.HostNamespace = DefaultHostNamespace
	}
	return c
}

// LoadConfig reads a YAML configuration file. Fields absent from the file keep
// their zero value and are defaulted by New.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}
