// Package ws streams read-only effect diagnostics to websocket clients.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"surfacefx/effects"
	"surfacefx/internal/telemetry"
)

// ProtocolVersion tags every frame written by the handler.
const ProtocolVersion = 1

const (
	defaultInterval = 100 * time.Millisecond
	writeWait       = time.Second
)

// Source exposes the latest diagnostics snapshot of every effects instance.
type Source interface {
	Snapshots() []effects.Snapshot
}

type HandlerConfig struct {
	Logger telemetry.Logger
	// Interval between frames; defaults to 100ms.
	Interval time.Duration
}

type Handler struct {
	src      Source
	logger   telemetry.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

type snapshotMessage struct {
	Ver        int                `json:"ver"`
	Type       string             `json:"type"`
	Seq        uint64             `json:"seq"`
	ServerTime int64              `json:"serverTime"`
	Instances  []effects.Snapshot `json:"instances"`
}

func NewHandler(src Source, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		src:      src,
		logger:   logger,
		interval: interval,
		upgrader: upgrader,
	}
}

// Handle upgrades the request and writes a snapshot frame every interval
// until the client goes away. The optional body query parameter restricts
// the stream to the instance attached to that body.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	var filter *uint64
	if raw := r.URL.Query().Get("body"); raw != "" {
		body, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			nethttp.Error(w, "invalid body", nethttp.StatusBadRequest)
			return
		}
		filter = &body
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("diagnostics upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The stream is write-only; reading only notices the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		seq++
		if err := h.send(conn, seq, filter); err != nil {
			return
		}
		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, seq uint64, filter *uint64) error {
	msg := snapshotMessage{
		Ver:        ProtocolVersion,
		Type:       "snapshot",
		Seq:        seq,
		ServerTime: time.Now().UnixMilli(),
		Instances:  selectInstances(h.src, filter),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal diagnostics frame: %v", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func selectInstances(src Source, filter *uint64) []effects.Snapshot {
	if src == nil {
		return []effects.Snapshot{}
	}
	all := src.Snapshots()
	if filter == nil {
		if all == nil {
			return []effects.Snapshot{}
		}
		return all
	}
	selected := make([]effects.Snapshot, 0, 1)
	for _, snap := range all {
		if snap.Body == *filter {
			selected = append(selected, snap)
		}
	}
	return selected
}
