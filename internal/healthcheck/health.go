// Package healthcheck serves grpc.health.v1 for the order service, driven by a
// readiness probe of its backing store.
package healthcheck

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name clients pass to Check for the order service.
const ServiceName = "cafe.orders.OrderService"

// Probe returns nil when the service can take traffic.
type Probe func(ctx context.Context) error

type Checker struct {
	health   *health.Server
	probe    Probe
	interval time.Duration
	log      *zap.Logger
}

func New(probe Probe, interval time.Duration, log *zap.Logger) *Checker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	c := &Checker{health: health.NewServer(), probe: probe, interval: interval, log: log.Named("health")}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Register adds the health service to g.
func (c *Checker) Register(g *grpc.Server) { healthpb.RegisterHealthServer(g, c.health) }

// Check runs the probe once and publishes the result.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err := c.probe(ctx)
	if err != nil {
		c.log.Warn("probe failed", zap.Error(err))
		c.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	c.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Run probes until ctx is done, then marks everything as not serving.
func (c *Checker) Run(ctx context.Context) {
	_ = c.Check(ctx)
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.health.Shutdown()
			return
		case <-t.C:
			_ = c.Check(ctx)
		}
	}
}

func (c *Checker) set(st healthpb.HealthCheckResponse_ServingStatus) {
	c.health.SetServingStatus("", st)
	c.health.SetServingStatus(ServiceName, st)
}

// Serve runs a gRPC server with the health service on lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, c *Checker) error {
	g := grpc.NewServer()
	c.Register(g)
	go func() {
		<-ctx.Done()
		g.GracefulStop()
	}()
	return g.Serve(lis)
}
