package server

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Anereges/AITB-Employee-Management-System/internal/api"
	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

// ContextAuthenticator authenticates an incoming gRPC call from its metadata.
type ContextAuthenticator interface {
	AuthenticateContext(ctx context.Context) (context.Context, error)
}

// Server is the internal gRPC endpoint. It serves the health service and shares the HTTP
// session guard through its interceptors.
type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	grpcServer *grpc.Server
	health     *health.Server
}

type Params struct {
	fx.In

	Config        *config.AppConfig
	Logger        *zap.Logger
	Authenticator ContextAuthenticator
}

func isProtectedEndpoint(method string) bool {
	isPublic, exists := api.PublicEndpoints[method]
	return !exists || !isPublic
}

// toStatus converts a guard error into a gRPC status without leaking internal detail.
func toStatus(err error) error {
	e := apperr.From(err)
	return status.Error(e.GRPCCode(), fmt.Sprintf("%s: %s", e.Code, e.Message))
}

func NewServer(p Params) *Server {
	authInterceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		// Skip authentication for non-protected endpoints
		if !isProtectedEndpoint(info.FullMethod) {
			return handler(ctx, req)
		}

		// Authenticate the request
		newCtx, err := p.Authenticator.AuthenticateContext(ctx)
		if err != nil {
			p.Logger.Warn("authentication failed",
				zap.String("method", info.FullMethod),
				zap.Error(err))
			return nil, toStatus(err)
		}

		// Call the handler with the authenticated context
		return handler(newCtx, req)
	}

	streamInterceptor := func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !isProtectedEndpoint(info.FullMethod) {
			return handler(srv, ss)
		}
		newCtx, err := p.Authenticator.AuthenticateContext(ss.Context())
		if err != nil {
			p.Logger.Warn("authentication failed",
				zap.String("method", info.FullMethod),
				zap.Error(err))
			return toStatus(err)
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
	}

	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(authInterceptor),
		grpc.StreamInterceptor(streamInterceptor),
	}
	if p.Config.GRPC.MaxReceiveMessageSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(p.Config.GRPC.MaxReceiveMessageSize))
	}
	if p.Config.GRPC.MaxSendMessageSize > 0 {
		opts = append(opts, grpc.MaxSendMsgSize(p.Config.GRPC.MaxSendMessageSize))
	}

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()

	server := &Server{
		config:     p.Config,
		log:        p.Logger,
		grpcServer: grpcServer,
		health:     healthServer,
	}

	// Register services
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.HealthService, healthpb.HealthCheckResponse_SERVING)

	if p.Config.GRPC.EnableReflection {
		reflection.Register(grpcServer)
	}

	return server
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("Starting gRPC server",
		zap.String("address", lis.Addr().String()),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", config.Server.Environment)
		enc.AddBool("reflection_enabled", config.GRPC.EnableReflection)
		enc.AddInt("max_receive_size", config.GRPC.MaxReceiveMessageSize)
		enc.AddInt("max_send_size", config.GRPC.MaxSendMessageSize)
		return nil
	})
}

func (s *Server) Stop() {
	s.log.Info("shutting down gRPC server")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
