// Package service defines the uniform contract the orchestrator routes
// operations against, plus adapters for the shipped backing tiers: in-process
// memory, Redis, PostgreSQL and remote gRPC backends.
package service

import (
	"context"
	"errors"
	"time"
)

// Kind identifies the backing infrastructure of a service.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindRedis    Kind = "redis"
	KindPostgres Kind = "postgres"
	KindGRPC     Kind = "grpc"
)

// Service is one concrete backing service eligible to satisfy an operation.
// Implementations must be safe for concurrent use.
type Service interface {
	ID() string
	Kind() Kind
	Ping(ctx context.Context) error
	Close() error
}

// KV is the key/value capability shared by the shipped adapters. Operation
// functions type-assert for it when they need storage semantics.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned by KV.Get when the key does not exist. A miss is a
// valid answer, not a service failure.
var ErrNotFound = errors.New("key not found")
