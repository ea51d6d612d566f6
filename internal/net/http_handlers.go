// Package net serves the HTTP diagnostics surface of a running effects world.
package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"surfacefx/internal/net/ws"
	"surfacefx/internal/telemetry"
)

// Source is the world the handlers report on.
type Source interface {
	ws.Source
	TelemetrySnapshot() map[string]uint64
	TickRate() int
	Tick() uint64
}

// Reloader re-reads a surface catalog from its sources.
type Reloader interface {
	Reload() error
}

type HTTPHandlerConfig struct {
	Logger telemetry.Logger
	// Stream serves /ws when set.
	Stream *ws.Handler
	// Catalogs are reloaded in order by POST /catalog/reload.
	Catalogs []Reloader
}

func NewHTTPHandler(src Source, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			Tick       uint64            `json:"tick"`
			TickRate   int               `json:"tickRate"`
			Instances  any               `json:"instances"`
			Telemetry  map[string]uint64 `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       src.Tick(),
			TickRate:   src.TickRate(),
			Instances:  src.Snapshots(),
			Telemetry:  src.TelemetrySnapshot(),
		}
		writeJSON(w, logger, payload)
	})

	mux.HandleFunc("/catalog/reload", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		for _, catalog := range cfg.Catalogs {
			if catalog == nil {
				continue
			}
			if err := catalog.Reload(); err != nil {
				logger.Printf("catalog reload failed: %v", err)
				httpError(w, err.Error(), nethttp.StatusUnprocessableEntity)
				return
			}
		}
		writeJSON(w, logger, struct {
			Status string `json:"status"`
		}{Status: "ok"})
	})

	if cfg.Stream != nil {
		mux.HandleFunc("/ws", cfg.Stream.Handle)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode diagnostics: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
