package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/perpdash/perpdash/internal/model"
	"github.com/perpdash/perpdash/internal/store"
	"github.com/perpdash/perpdash/internal/table"
)

// Config holds hub settings.
type Config struct {
	Addr             string // HTTP listen address
	ClientSendBuffer int    // Per-client outbound queue before the client is dropped
}

// Scheduler is the slice of the render coordinator the hub drives.
type Scheduler interface {
	Pause()
	Resume()
	RequestPaint()
}

// Source is the slice of the store the JSON endpoints read.
type Source interface {
	GetSymbols(q store.Query) []model.SymbolState
	GetSpikeAlerts() []model.SpikeAlert
	GetState() store.Snapshot
}

// Server is the dashboard hub. It implements the render sink: paints arrive
// as row lists and fan out to every connected client.
type Server struct {
	cfg       Config
	source    Source
	scheduler Scheduler
	logger    *slog.Logger

	// streamState reports the upstream connection state on /health.
	streamState func() string

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu        sync.Mutex
	clients   map[string]*client
	sortState model.SortState
	lastPaint []byte // most recent broadcast frame, replayed to new clients
}

// New creates the hub. A nil logger falls back to slog.Default().
func New(cfg Config, source Source, scheduler Scheduler, streamState func() string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:         cfg,
		source:      source,
		scheduler:   scheduler,
		logger:      logger,
		streamState: streamState,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
	s.httpSrv = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the HTTP routing surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/symbols", s.handleSymbols)
	mux.HandleFunc("/api/spikes", s.handleSpikes)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins serving. It returns once the listener fails or Stop shuts it
// down.
func (s *Server) Start() error {
	s.logger.Info("dashboard server listening", "addr", s.cfg.Addr)
	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every client and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for _, c := range s.clients {
		close(c.send)
	}
	s.clients = make(map[string]*client)
	s.mu.Unlock()

	return s.httpSrv.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Render sink
// -----------------------------------------------------------------------------

// SortState returns the active table sort.
func (s *Server) SortState() model.SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortState
}

// Paint broadcasts a fresh row list to every connected client.
func (s *Server) Paint(rows []model.DisplayRow) {
	frame, err := json.Marshal(struct {
		Type      string             `json:"type"`
		Data      []model.DisplayRow `json:"data"`
		Timestamp time.Time          `json:"timestamp"`
	}{
		Type:      "market_data",
		Data:      rows,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to encode paint frame", "error", err)
		return
	}

	s.mu.Lock()
	s.lastPaint = frame
	var dropped []*client
	for _, c := range s.clients {
		select {
		case c.send <- frame:
		default:
			// Queue full: this client cannot keep up.
			dropped = append(dropped, c)
		}
	}
	for _, c := range dropped {
		delete(s.clients, c.id)
		close(c.send)
	}
	remaining := len(s.clients)
	s.mu.Unlock()

	for _, c := range dropped {
		s.logger.Warn("dropping slow client", "client_id", c.id)
	}
	if len(dropped) > 0 && remaining == 0 {
		s.scheduler.Pause()
	}
}

// -----------------------------------------------------------------------------
// WebSocket hub
// -----------------------------------------------------------------------------

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, s.cfg.ClientSendBuffer),
		server: s,
		logger: s.logger,
	}

	s.mu.Lock()
	s.clients[c.id] = c
	total := len(s.clients)
	if last := s.lastPaint; last != nil {
		c.send <- last
	}
	s.mu.Unlock()

	s.logger.Info("client connected", "client_id", c.id, "clients", total)
	if total == 1 {
		s.scheduler.Resume()
	}

	go c.writePump()
	go c.readPump()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	_, present := s.clients[c.id]
	if present {
		delete(s.clients, c.id)
		close(c.send)
	}
	remaining := len(s.clients)
	s.mu.Unlock()

	if !present {
		return
	}
	s.logger.Info("client disconnected", "client_id", c.id, "clients", remaining)
	if remaining == 0 {
		s.scheduler.Pause()
	}
}

func (s *Server) handleClientMessage(c *client, msg inboundMessage) {
	switch msg.Type {
	case "set_sort":
		s.mu.Lock()
		s.sortState = table.NextSortState(s.sortState, model.SortColumn(msg.Column))
		next := s.sortState
		s.mu.Unlock()

		s.logger.Debug("sort state changed",
			"client_id", c.id, "column", next.Column, "direction", next.Direction)
		s.scheduler.RequestPaint()
	case "ping":
		pong, _ := json.Marshal(struct {
			Type      string    `json:"type"`
			Timestamp time.Time `json:"timestamp"`
		}{Type: "pong", Timestamp: time.Now().UTC()})
		select {
		case c.send <- pong:
		default:
		}
	default:
		s.logger.Debug("ignoring unknown client message", "client_id", c.id, "type", msg.Type)
	}
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------
// JSON endpoints
// -----------------------------------------------------------------------------

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := store.Query{
		Suffix: params.Get("suffix"),
		SortBy: store.SortField(params.Get("sort_by")),
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "limit must be a positive integer"})
			return
		}
		q.Limit = limit
	}
	symbols := s.source.GetSymbols(q)

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(symbols),
		"symbols": symbols,
	})
}

func (s *Server) handleSpikes(w http.ResponseWriter, r *http.Request) {
	alerts := s.source.GetSpikeAlerts()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(alerts),
		"spikes": alerts,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.source.GetState()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if s.streamState != nil {
		state := s.streamState()
		health.Components["stream"] = state
		if state != "connected" {
			health.Status = "degraded"
		}
	}
	health.Components["store"] = map[string]any{
		"symbols":     len(snap.Symbols),
		"ticker_seen": snap.TickerSeen,
		"mark_seen":   snap.MarkSeen,
	}
	health.Components["clients"] = s.ClientCount()

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
