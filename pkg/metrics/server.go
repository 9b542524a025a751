package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultd/vaultd/internal/logger"
)

// Server serves the process-wide registry on a dedicated HTTP listener,
// separate from the vaultd protocol's TCP listener.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics HTTP server bound to addr. GetRegistry must
// have been populated by InitRegistry first.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{}))
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Serve blocks until Shutdown is called or the listener fails.
func (s *Server) Serve() error {
	logger.Info("metrics: listening", logger.KeyRemoteIP, s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the metrics HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
