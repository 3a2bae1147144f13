package api

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC service name reported alongside the overall
// status.
const HealthService = "miniisland.Simulation"

// NewHealthServer returns a gRPC server exposing the standard health service.
// Both statuses start as NOT_SERVING until the simulation publishes state.
func NewHealthServer() (*grpc.Server, *health.Server) {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// WatchHealth mirrors the simulation's liveness into hs: SERVING while the
// tick advances, NOT_SERVING when it stalls or ctx ends.
func WatchHealth(ctx context.Context, hs *health.Server, src Source, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	var last uint64
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			status := healthpb.HealthCheckResponse_NOT_SERVING
			if s := src.Snapshot(); s != nil && s.Tick > last {
				status = healthpb.HealthCheckResponse_SERVING
				last = s.Tick
			}
			hs.SetServingStatus("", status)
			hs.SetServingStatus(HealthService, status)
		}
	}
}

// ServeGRPC listens on addr until ctx is done, then stops gracefully.
func ServeGRPC(ctx context.Context, addr string, srv *grpc.Server, log *zap.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	log.Info("gRPC health server started", zap.String("addr", lis.Addr().String()))
	return srv.Serve(lis)
}
