package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// GRPC adapts a remote gRPC backend as a candidate tier. It does not
// implement KV; operations obtain the connection via Conn and use their own
// generated clients. Health probing uses the standard grpc.health.v1 service.
type GRPC struct {
	id       string
	endpoint string
	conn     *grpc.ClientConn
	health   healthpb.HealthClient
}

// NewGRPC dials a gRPC backend. TLS is inferred from the endpoint scheme;
// extraOpts is for tests and custom transports.
func NewGRPC(ctx context.Context, id, endpoint string, extraOpts ...grpc.DialOption) (*GRPC, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}
	opts = append(opts, extraOpts...)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}

	return &GRPC{
		id:       id,
		endpoint: endpoint,
		conn:     conn,
		health:   healthpb.NewHealthClient(conn),
	}, nil
}

func (g *GRPC) ID() string { return g.id }

func (g *GRPC) Kind() Kind { return KindGRPC }

// Ping asks the backend's health service for overall serving status.
func (g *GRPC) Ping(ctx context.Context) error {
	resp, err := g.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("backend not serving: %s", resp.GetStatus())
	}
	return nil
}

func (g *GRPC) Close() error { return g.conn.Close() }

// Conn exposes the underlying connection for generated clients.
func (g *GRPC) Conn() *grpc.ClientConn { return g.conn }

// RetryHint extracts a server-suggested retry delay from a gRPC error.
// Backends under load attach RetryInfo details to throttling responses.
func RetryHint(err error) (time.Duration, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.RetryInfo); ok {
			return info.GetRetryDelay().AsDuration(), true
		}
	}
	return 0, false
}
