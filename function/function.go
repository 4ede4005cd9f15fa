package function

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/channel"
	"github.com/tarmac-project/jstore/record"
)

// Operations accepted in Request.Op.
const (
	OpGet       = "get"
	OpSet       = "set"
	OpDel       = "del"
	OpOmit      = "omit"
	OpHas       = "has"
	OpCount     = "count"
	OpIDs       = "ids"
	OpRemove    = "remove"
	OpRemoveAll = "remove_all"
	OpFire      = "fire"
)

// ErrUnknownOperation is reported for a request naming no known operation.
var ErrUnknownOperation = errors.New("unknown operation")

// Request is the JSON payload accepted by Handle.
type Request struct {
	Op      string          `json:"op"`
	ID      string          `json:"id,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Fields  []string        `json:"fields,omitempty"`
	Command string          `json:"command,omitempty"`
}

// Response is the JSON payload returned by Handle.
type Response struct {
	OK     bool          `json:"ok"`
	Found  bool          `json:"found,omitempty"`
	Record record.Record `json:"record,omitempty"`
	Count  *int          `json:"count,omitempty"`
	IDs    []string      `json:"ids,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Config wires a Handler to its collaborators.
type Config struct {
	// Store serves the record operations. Required.
	Store *record.Store

	// Channel serves fire. When nil, fire reports jstore.ErrUnsupported.
	Channel *channel.Channel

	// Logger receives one line per failed request.
	Logger *slog.Logger
}

// Handler answers JSON requests against a record store and channel.
type Handler struct {
	store   *record.Store
	channel *channel.Channel
	log     *slog.Logger
}

// New creates a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: record store is required", jstore.ErrInvalidArgument)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Handler{store: cfg.Store, channel: cfg.Channel, log: log}, nil
}

// Handle decodes a Request, runs it and encodes the Response. Operation
// failures are reported in Response.Error with OK false; the returned error is
// only set when the payload is not a valid request.
func (h *Handler) Handle(payload []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		err = fmt.Errorf("%w: malformed request: %w", jstore.ErrInvalidArgument, err)
		b, _ := json.Marshal(Response{Error: err.Error()})
		return b, err
	}

	resp, err := h.Do(req)
	if err != nil {
		h.log.Warn("request failed", "op", req.Op, "id", req.ID, "error", err)
		resp = Response{Error: err.Error()}
	}

	return json.Marshal(resp)
}

// Do runs a decoded Request.
func (h *Handler) Do(req Request) (Response, error) {
	switch req.Op {
	case OpGet:
		rec, ok, err := h.store.Get(req.ID)
		if err != nil {
			return Response{}, err
		}
		return Response{OK: true, Found: ok, Record: rec}, nil

	case OpSet:
		return done(h.store.Set(req.ID, req.Value))

	case OpDel:
		return done(h.store.Del(req.ID, req.Fields...))

	case OpOmit:
		return done(h.store.Omit(req.ID, req.Fields...))

	case OpHas:
		ok, err := h.store.Has(req.ID)
		if err != nil {
			return Response{}, err
		}
		return Response{OK: true, Found: ok}, nil

	case OpCount:
		n, err := h.store.Count()
		if err != nil {
			return Response{}, err
		}
		return Response{OK: true, Count: &n}, nil

	case OpIDs:
		ids, err := h.store.IDs()
		if err != nil {
			return Response{}, err
		}
		n := len(ids)
		return Response{OK: true, IDs: ids, Count: &n}, nil

	case OpRemove:
		return done(h.store.Remove(req.ID))

	case OpRemoveAll:
		n, err := h.store.RemoveAll()
		if err != nil {
			return Response{}, err
		}
		return Response{OK: true, Count: &n}, nil

	case OpFire:
		if h.channel == nil {
			return Response{}, jstore.ErrUnsupported
		}
		return done(h.channel.Fire(channel.Descriptor{Command: req.Command}))

	default:
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Op)
	}
}

func done(err error) (Response, error) {
	if err != nil {
		return Response{}, err
	}
	return Response{OK: true}, nil
}
