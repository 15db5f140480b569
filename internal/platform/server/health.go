package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthCheck は依存先の疎通確認です。
type HealthCheck func(ctx context.Context) error

// HealthServer は grpc.health.v1.Health を公開する gRPC サーバーです。
type HealthServer struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	logger     logrus.FieldLogger
}

// NewHealthServer はヘルスチェック用の gRPC サーバーを構築します。初期状態は NOT_SERVING です。
func NewHealthServer(listenAddr string, logger logrus.FieldLogger, opts ...grpc.ServerOption) *HealthServer {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     hs,
		logger:     logger,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *HealthServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC health: %w", err)
	}
	return nil
}

const defaultMonitorInterval = 10 * time.Second

// Monitor は interval ごとに check を実行し、結果を提供状態へ反映します。
// interval が 0 以下の場合は既定の間隔を使います。
func (s *HealthServer) Monitor(ctx context.Context, check HealthCheck, interval time.Duration) {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	s.runCheck(ctx, check)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCheck(ctx, check)
		}
	}
}

func (s *HealthServer) runCheck(ctx context.Context, check HealthCheck) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := check(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.WithError(err).Warn("health check failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}

// GracefulStop はサーバーを安全に停止します。
func (s *HealthServer) GracefulStop() {
	s.grpcServer.GracefulStop()
}
