package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	HealthServiceName = "campustrade"
	pingTimeout       = 2 * time.Second
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker reports the service as serving while the database answers
// pings. The same status backs the gRPC health service and GET /health.
type HealthChecker struct {
	db     Pinger
	server *health.Server
	logger log.FieldLogger
}

func NewHealthChecker(db Pinger, logger log.FieldLogger) *HealthChecker {
	return &HealthChecker{db: db, server: health.NewServer(), logger: logger}
}

func (c *HealthChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.db.PingContext(pingCtx); err != nil {
		c.logger.WithError(err).Warn("database ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(HealthServiceName, status)
	return status
}

// Run refreshes the status every interval until ctx is done.
func (c *HealthChecker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c.Check(ctx)
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return nil
		case <-ticker.C:
		}
	}
}

func (c *HealthChecker) GRPCServer() *grpc.Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, c.server)
	return srv
}

func (c *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := c.Check(r.Context())
	code := http.StatusOK
	if status != healthpb.HealthCheckResponse_SERVING {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status.String()})
}

// CheckRemoteHealth asks a running instance for its health and returns the response
// rendered as JSON.
func CheckRemoteHealth(ctx context.Context, addr string) ([]byte, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: HealthServiceName})
	if err != nil {
		return nil, errors.Wrap(err, "health check")
	}
	return protojson.Marshal(resp)
}
