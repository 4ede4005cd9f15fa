package kv

import (
	"errors"
	"fmt"

	jstore "github.com/tarmac-project/jstore"
	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/kvstore"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

// KV is the backend contract shared by every storage origin.
type KV interface {
	// Get returns the stored bytes or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Missing keys report ErrKeyNotFound.
	Delete(key string) error

	// Keys lists every key in the backend's native enumeration order.
	Keys() ([]string, error)

	// Close releases resources held by the backend.
	Close() error
}

const (
	capabilityName = "kvstore"
	fnGet          = "get"
	fnSet          = "set"
	fnDelete       = "delete"
	fnKeys         = "keys"

	hostStatusOK      = int32(200)
	hostStatusMissing = int32(404)
)

var (
	// ErrInvalidKey indicates an empty key.
	ErrInvalidKey = errors.New("key is invalid")

	// ErrInvalidValue indicates a nil value.
	ErrInvalidValue = errors.New("value is invalid")

	// ErrKeyNotFound indicates the key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrHostCall aliases jstore.ErrHostCall for convenience.
	ErrHostCall = jstore.ErrHostCall

	// ErrHostResponseInvalid aliases jstore.ErrHostResponseInvalid for convenience.
	ErrHostResponseInvalid = jstore.ErrHostResponseInvalid

	// ErrHostError aliases jstore.ErrHostError for convenience.
	ErrHostError = jstore.ErrHostError
)

// HostCall defines the waPC host function signature used by kv operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig jstore.RuntimeConfig

	// Namespace overrides SDKConfig.HostNamespace when set.
	Namespace string

	// HostCall overrides the waPC host function used for kv operations.
	HostCall HostCall
}

// Client is the Tarmac kvstore capability client.
type Client struct {
	namespace string
	hostCall  HostCall
}

// Ensure Client satisfies the KV interface at compile time.
var _ KV = (*Client)(nil)

// New creates a kvstore client with namespace defaults and optional host-call override.
func New(config Config) (*Client, error) {
	ns := config.Namespace
	if ns == "" {
		ns = config.SDKConfig.WithDefaults().HostNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Client{namespace: ns, hostCall: hostCall}, nil
}

// Close implements KV.
func (c *Client) Close() error {
	return nil
}

// Get fetches the value stored under key.
func (c *Client) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	payload, err := (&proto.KVStoreGet{Key: key}).MarshalVT()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal get request: %w", err)
	}

	b, err := c.call(fnGet, payload)
	if err != nil {
		return nil, err
	}

	var resp proto.KVStoreGetResponse
	if err := resp.UnmarshalVT(b); err != nil {
		return nil, errors.Join(ErrHostResponseInvalid, err)
	}

	if err := checkStatus(resp.GetStatus()); err != nil {
		return nil, err
	}

	return resp.GetData(), nil
}

// Set stores value under key.
func (c *Client) Set(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if value == nil {
		return ErrInvalidValue
	}

	payload, err := (&proto.KVStoreSet{Key: key, Data: value}).MarshalVT()
	if err != nil {
		return fmt.Errorf("failed to marshal set request: %w", err)
	}

	b, err := c.call(fnSet, payload)
	if err != nil {
		return err
	}

	var resp proto.KVStoreSetResponse
	if err := resp.UnmarshalVT(b); err != nil {
		return errors.Join(ErrHostResponseInvalid, err)
	}

	return checkStatus(resp.GetStatus())
}

// Delete removes key from the host store.
func (c *Client) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	payload, err := (&proto.KVStoreDelete{Key: key}).MarshalVT()
	if err != nil {
		return fmt.Errorf("failed to marshal delete request: %w", err)
	}

	b, err := c.call(fnDelete, payload)
	if err != nil {
		return err
	}

	var resp proto.KVStoreDeleteResponse
	if err := resp.UnmarshalVT(b); err != nil {
		return errors.Join(ErrHostResponseInvalid, err)
	}

	return checkStatus(resp.GetStatus())
}

// Keys lists the keys known to the host store in host order.
func (c *Client) Keys() ([]string, error) {
	payload, err := (&proto.KVStoreKeys{ReturnProto: true}).MarshalVT()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keys request: %w", err)
	}

	b, err := c.call(fnKeys, payload)
	if err != nil {
		return nil, err
	}

	var resp proto.KVStoreKeysResponse
	if err := resp.UnmarshalVT(b); err != nil {
		return nil, errors.Join(ErrHostResponseInvalid, err)
	}

	if err := checkStatus(resp.GetStatus()); err != nil {
		return nil, err
	}

	return resp.GetKeys(), nil
}

func (c *Client) call(fn string, payload []byte) ([]byte, error) {
	b, err := c.hostCall(c.namespace, capabilityName, fn, payload)
	if err != nil {
		return nil, errors.Join(ErrHostCall, err)
	}
	return b, nil
}

// checkStatus maps a host status onto the package error set. Hosts report
// success as either 0 or 200.
func checkStatus(status *sdkproto.Status) error {
	if status == nil {
		return ErrHostResponseInvalid
	}

	switch code := status.GetCode(); code {
	case 0, hostStatusOK:
		return nil
	case hostStatusMissing:
		return ErrKeyNotFound
	default:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return errors.Join(ErrHostError, errors.New(detail))
	}
}
