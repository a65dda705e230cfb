package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthChecker(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pinger := &stubPinger{}
	checker := NewHealthChecker(pinger, logger)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checker.Check(context.Background()))

	pinger.err = errors.New("too many connections")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checker.Check(context.Background()))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "database ping failed", hook.LastEntry().Message)
}

func TestCheckRemoteHealth(t *testing.T) {
	logger, _ := test.NewNullLogger()
	checker := NewHealthChecker(&stubPinger{}, logger)
	checker.Check(context.Background())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := checker.GRPCServer()
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := CheckRemoteHealth(ctx, lis.Addr().String())
	require.NoError(t, err)
	assert.Contains(t, string(out), "SERVING")
}
