// Package health exposes the standard grpc.health.v1 service so orchestrators
// can probe the web front-end without issuing an upload.
package health

import (
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key reported alongside the server-wide "" key.
const ServiceName = "celebrity_recognition.Upload"

// stopTimeout bounds how long Stop waits for open Watch streams before
// closing them.
var stopTimeout = 5 * time.Second

// Server wraps a gRPC server that only serves health checks.
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	logger     *zap.Logger
}

// NewServer builds a health server that reports SERVING until MarkNotServing.
func NewServer(logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpcServer: grpcServer, health: hs, logger: logger.Named("grpc_health")}
}

// Serve blocks accepting connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// MarkNotServing flips every service to NOT_SERVING. Further status updates
// are ignored.
func (s *Server) MarkNotServing() {
	s.health.Shutdown()
}

// Stop marks the server not serving and waits for in-flight checks to finish.
// Watch streams still open after stopTimeout are closed.
func (s *Server) Stop() {
	s.MarkNotServing()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(stopTimeout):
		s.logger.Warn("gRPC health server did not drain, forcing stop", zap.Duration("timeout", stopTimeout))
		s.grpcServer.Stop()
		<-stopped
	}
	s.logger.Info("gRPC health server stopped")
}
