package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mpelletier/boardwalk/internal/engine"
	"github.com/mpelletier/boardwalk/internal/events"
)

// Server is the boardwalk API server: JSON handlers over the engine plus a
// WebSocket event stream. Request validation and auth live at this layer;
// the engine only sees resolved mutation intents.
type Server struct {
	addr        string
	mux         *http.ServeMux
	logger      *slog.Logger
	engine      *engine.Engine
	wsHandler   *WSHandler
	httpServer  *http.Server
	multiTenant bool
}

// Config holds server configuration.
type Config struct {
	Addr        string
	Engine      *engine.Engine
	Publisher   events.Publisher
	Logger      *slog.Logger
	MultiTenant bool
}

// New creates a new API server.
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:        cfg.Addr,
		mux:         http.NewServeMux(),
		logger:      logger,
		engine:      cfg.Engine,
		wsHandler:   NewWSHandler(cfg.Publisher, cfg.MultiTenant, logger),
		multiTenant: cfg.MultiTenant,
	}
	s.routes()
	return s
}

// routes registers all HTTP routes.
func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/boards", s.handleCreateBoard)
	s.mux.HandleFunc("PATCH /api/boards/{id}", s.handleUpdateBoard)
	s.mux.HandleFunc("POST /api/boards/{id}/reorder", s.handleReorderBoard)
	s.mux.HandleFunc("POST /api/boards/{id}/columns", s.handleCreateColumn)

	s.mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	s.mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/reorder", s.handleReorderTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/move-board", s.handleMoveTaskAcrossBoard)
	s.mux.HandleFunc("POST /api/tasks/reposition", s.handleBatchReposition)

	s.mux.HandleFunc("POST /api/tasks/{id}/relationships", s.handleCreateRelationship)
	s.mux.HandleFunc("DELETE /api/tasks/{id}/relationships/{relID}", s.handleDeleteRelationship)
	s.mux.HandleFunc("GET /api/tasks/{id}/graph", s.handleConnectedGraph)

	s.mux.Handle("GET /ws", s.wsHandler)
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("api server listening", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and closes WebSocket connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHandler.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// tenant resolves the request's tenant. Single-tenant deployments use the
// empty tenant regardless of headers.
func (s *Server) tenant(r *http.Request) string {
	if !s.multiTenant {
		return ""
	}
	return r.Header.Get("X-Tenant-ID")
}
