package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

// HTTPServer serves the public REST API.
type HTTPServer struct {
	config *config.AppConfig
	log    *zap.Logger
	server *http.Server
}

func NewHTTPServer(config *config.AppConfig, handler http.Handler, log *zap.Logger) *HTTPServer {
	return &HTTPServer{
		config: config,
		log:    log,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

func (s *HTTPServer) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.log.Info("Starting HTTP server",
		zap.String("address", lis.Addr().String()),
		zap.String("environment", s.config.Server.Environment))

	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
