package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Check func(ctx context.Context) error

// HealthServer serves the standard gRPC health protocol. The status of the
// named service and of "" follows the dependency checks, re-run every interval.
type HealthServer struct {
	service  string
	checks   map[string]Check
	interval time.Duration
	logger   *zap.Logger

	server *grpc.Server
	health *health.Server

	stopOnce sync.Once
	stop     chan struct{}
}

func NewHealthServer(service string, checks map[string]Check, interval time.Duration, logger *zap.Logger) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		service:  service,
		checks:   checks,
		interval: interval,
		logger:   logger,
		server:   srv,
		health:   hs,
		stop:     make(chan struct{}),
	}
}

func (s *HealthServer) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("gRPC health service started", zap.String("address", addr))
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	s.Refresh(context.Background())
	go s.watch()
	return s.server.Serve(lis)
}

func (s *HealthServer) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Refresh(context.Background())
		}
	}
}

// Refresh runs every check once and publishes the combined status.
func (s *HealthServer) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("Dependency unhealthy", zap.String("check", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}

func (s *HealthServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.server.GracefulStop()
	})
}
