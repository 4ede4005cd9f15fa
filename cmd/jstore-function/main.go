// Command jstore-function is a Tarmac WebAssembly function serving the record
// store over the host key-value capability.
package main

import (
	"log/slog"

	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/channel"
	"github.com/tarmac-project/jstore/function"
	"github.com/tarmac-project/jstore/kv"
	"github.com/tarmac-project/jstore/logging"
	"github.com/tarmac-project/jstore/metrics"
	"github.com/tarmac-project/jstore/record"
	"github.com/tarmac-project/jstore/storage"
	"github.com/tarmac-project/jstore/tabstatus"
)

func main() {
	cfg := jstore.RuntimeConfig{TabStatus: true}.WithDefaults()

	host, err := logging.New(logging.Config{SDKConfig: cfg})
	if err != nil {
		return
	}
	logger := slog.New(logging.NewHandler(host, slog.LevelInfo))

	backend, err := kv.New(kv.Config{SDKConfig: cfg})
	if err != nil {
		logger.Error("kv client unavailable", "error", err)
		return
	}

	m, err := metrics.New(metrics.Config{SDKConfig: cfg})
	if err != nil {
		logger.Error("metrics client unavailable", "error", err)
		return
	}
	recordMetrics, err := metrics.NewRecordInstruments(m)
	if err != nil {
		logger.Error("record metrics unavailable", "error", err)
		return
	}
	channelMetrics, err := metrics.NewChannelInstruments(m)
	if err != nil {
		logger.Error("channel metrics unavailable", "error", err)
		return
	}

	port := storage.NewOrigin(backend).Attach()

	store, err := record.New(record.Config{
		SDKConfig: cfg,
		Port:      port,
		Logger:    logger,
		Metrics:   recordMetrics,
	})
	if err != nil {
		logger.Error("record store unavailable", "error", err)
		return
	}

	chCfg := channel.Config{
		SDKConfig: cfg,
		Port:      port,
		Logger:    logger,
		Metrics:   channelMetrics,
	}
	if cfg.TabStatus {
		chCfg.Observer = tabstatus.New("jstore", func(title string) {
			logger.Debug("title changed", "title", title)
		})
	}
	ch, err := channel.New(chCfg)
	if err != nil {
		logger.Error("channel unavailable", "error", err)
		return
	}

	h, err := function.New(function.Config{Store: store, Channel: ch, Logger: logger})
	if err != nil {
		logger.Error("handler unavailable", "error", err)
		return
	}

	if _, err := jstore.New(jstore.Config{
		Prefix:    cfg.Prefix,
		Debug:     cfg.Debug,
		TabStatus: cfg.TabStatus,
		Handler:   h.Handle,
	}); err != nil {
		logger.Error("registration failed", "error", err)
	}
}
