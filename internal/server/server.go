// Package server wires the JSON API together and runs the HTTP server.
// The server is the untrusted half of the system: it persists opaque
// ciphertext records and account metadata, and never holds a key.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/server/config"
	"github.com/avolkov/notevault/internal/server/handler"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg *config.Config
	log logging.Logger
	srv *http.Server
}

func New(cfg *config.Config, gw gateway.Gateway, log logging.Logger) *Server {
	h := handler.New(gw, log, []byte(cfg.JWTSecret), cfg.TokenValidity)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.Handle("POST /api/auth/recovery", h.Authenticate(http.HandlerFunc(h.StoreRecovery)))
	mux.Handle("GET /api/notes", h.Authenticate(http.HandlerFunc(h.ListNotes)))
	mux.Handle("POST /api/notes", h.Authenticate(http.HandlerFunc(h.CreateNote)))
	mux.Handle("PUT /api/notes/{id}", h.Authenticate(http.HandlerFunc(h.UpdateNote)))

	return &Server{
		cfg: cfg,
		log: log,
		srv: &http.Server{Addr: cfg.Address, Handler: mux},
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Handler exposes the routed handler, used by tests via httptest.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server listening", "addr", s.cfg.Address)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
