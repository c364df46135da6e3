package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "marketing.campaign_orchestrator"

// NewServer builds the gRPC server that carries the standard health service.
func NewServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return server, healthServer
}

// HealthReporter mirrors storage readiness into the gRPC health status for
// both the named service and the empty (whole server) service.
type HealthReporter struct {
	logger   *slog.Logger
	health   *health.Server
	check    func(ctx context.Context) error
	interval time.Duration
	serving  *bool
}

func NewHealthReporter(logger *slog.Logger, healthServer *health.Server, check func(ctx context.Context) error, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{logger: logger, health: healthServer, check: check, interval: interval}
}

func (r *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.probe(ctx)
		select {
		case <-ctx.Done():
			r.health.Shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *HealthReporter) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	var err error
	if r.check != nil {
		checkCtx, cancel := context.WithTimeout(ctx, r.interval)
		err = r.check(checkCtx)
		cancel()
	}
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	serving := err == nil
	if r.serving == nil || *r.serving != serving {
		r.logger.Info("grpc health status changed",
			"module", "grpc.health",
			"layer", "adapter",
			"operation", "probe",
			"status", status.String(),
			"error", err,
		)
		r.serving = &serving
	}
	r.health.SetServingStatus(ServiceName, status)
	r.health.SetServingStatus("", status)
}
