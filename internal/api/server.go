package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"go-data-prep/internal/logger"
	"go-data-prep/pkg/errors"

	"go.uber.org/zap"
)

// Server is the HTTP front end for the conversion API.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	log             *zap.SugaredLogger
}

// NewServer prepares a server for handler on addr.
func NewServer(addr string, handler http.Handler, shutdownTimeout time.Duration, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for at most the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(ln)
	}()
	s.log.Infow("API server listening", "addr", ln.Addr().String())

	select {
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, "server stopped unexpectedly")
	case <-ctx.Done():
	}

	s.log.Infow("Shutting down API server", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	s.log.Infow("API server stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr),
			"choose another address with --addr or server.addr",
		)
	}
	return s.Serve(ctx, ln)
}
