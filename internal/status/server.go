package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/winlink-canary/wlc/internal/config"
	"github.com/winlink-canary/wlc/internal/health"
)

// Server exposes the health tracker over HTTP.
type Server struct {
	cfg      *config.Config
	tracker  *health.Tracker
	gatherer prometheus.Gatherer
	log      zerolog.Logger

	httpServer *http.Server
}

// NewServer wires the status surface. gatherer may be nil, in which case
// /metrics is not registered.
func NewServer(cfg *config.Config, tracker *health.Tracker, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		tracker:  tracker,
		gatherer: gatherer,
		log:      log,
	}
}

// Start serves until Stop or a listener error. It blocks, so callers run
// it in a goroutine.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var err error
	if s.cfg.HTTPTLSCert != "" {
		s.log.Info().Str("addr", s.cfg.HTTPAddr).Msg("status server listening (https)")
		err = s.httpServer.ListenAndServeTLS(s.cfg.HTTPTLSCert, s.cfg.HTTPTLSKey)
	} else {
		s.log.Info().Str("addr", s.cfg.HTTPAddr).Msg("status server listening")
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown failed: %w", err)
	}
	return nil
}
