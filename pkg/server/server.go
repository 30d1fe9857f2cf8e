// Package server implements the lanternd log gateway: it serves the
// configured sources over WebSocket and lists them over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lanternhq/lantern/pkg/core"
	"github.com/lanternhq/lantern/pkg/server/sources"
)

// Interval bounds for per-connection write batching.
const (
	minInterval     = 25 * time.Millisecond
	maxInterval     = 5 * time.Second
	defaultInterval = 250 * time.Millisecond

	writeTimeout = 30 * time.Second
)

// Server serves log sources over WebSocket.
type Server struct {
	addr   string
	token  string
	logger *slog.Logger

	mu        sync.RWMutex
	sources   map[string]sources.Source
	order     []string
	defaultID string

	upgrader websocket.Upgrader
}

// New creates a server bound to addr. Connections must present token
// as a query parameter; an empty token disables the check.
func New(addr, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		token:   token,
		logger:  logger,
		sources: make(map[string]sources.Source),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// AddSource registers a source. The first registered source becomes
// the default unless a later one is marked default explicitly.
func (s *Server) AddSource(src sources.Source, isDefault bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[src.ID()]; !exists {
		s.order = append(s.order, src.ID())
	}
	s.sources[src.ID()] = src
	if isDefault || s.defaultID == "" {
		s.defaultID = src.ID()
	}
}

// Sources lists the registered sources in registration order.
func (s *Server) Sources() []core.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Source, 0, len(s.order))
	for _, id := range s.order {
		src := s.sources[id]
		out = append(out, core.Source{ID: src.ID(), Name: src.Name()})
	}
	return out
}

// Run starts the HTTP server. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutCtx)
	}()

	s.logger.Info("gateway listening", "addr", s.addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("GET /api/stream/{source}", s.handleStream)
	return mux
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	return r.URL.Query().Get("token") == s.token
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Sources())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("source")
	s.mu.RLock()
	if id == "" {
		id = s.defaultID
	}
	src, ok := s.sources[id]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown source", http.StatusNotFound)
		return
	}

	interval := clampInterval(r.URL.Query().Get("interval"))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, err := src.Tail(ctx)
	if err != nil {
		s.logger.Error("tail failed", "source", id, "err", err)
		http.Error(w, "source unavailable", http.StatusBadGateway)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Read pump: clients never send data, but reading is how we learn
	// the peer went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	s.logger.Info("stream opened", "source", id, "interval", interval, "remote", r.RemoteAddr)
	s.writeLoop(ctx, conn, ch, interval)
	s.logger.Info("stream closed", "source", id, "remote", r.RemoteAddr)
}

// writeLoop batches buffered lines into one text frame per interval
// tick.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, ch <-chan core.LogLine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var batch []string
	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		payload := strings.Join(batch, "\n")
		batch = batch[:0]
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteMessage(websocket.TextMessage, []byte(payload)) == nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, line.Line)
		case <-ticker.C:
			if !flush() {
				return
			}
		}
	}
}

func clampInterval(raw string) time.Duration {
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return defaultInterval
	}
	d := time.Duration(ms) * time.Millisecond
	if d < minInterval {
		return minInterval
	}
	if d > maxInterval {
		return maxInterval
	}
	return d
}
