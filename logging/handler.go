package logging

import (
	"context"
	"log/slog"
	"strings"

	jstore "github.com/tarmac-project/jstore"
)

// Diagnostics returns the logger components should use for diagnostic
// output. Without debug enabled, or without a logger, output is discarded.
func Diagnostics(cfg jstore.RuntimeConfig, logger *slog.Logger) *slog.Logger {
	if !cfg.Debug || logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// handler is a slog.Handler that forwards each record to a Client as one
// "message key=value ..." line at the matching host level.
type handler struct {
	client Client
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

// NewHandler adapts client to slog. Records below level are dropped; a nil
// level means slog.LevelInfo.
func NewHandler(client Client, level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &handler{client: client, level: level}
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})

	msg := b.String()
	switch {
	case r.Level >= slog.LevelError:
		h.client.Error(msg)
	case r.Level >= slog.LevelWarn:
		h.client.Warn(msg)
	case r.Level >= slog.LevelInfo:
		h.client.Info(msg)
	case r.Level >= slog.LevelDebug:
		h.client.Debug(msg)
	default:
		h.client.Trace(msg)
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	switch {
	case group == "":
	case key == "":
		key = group
	default:
		key = group + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}
