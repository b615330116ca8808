package control

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/cascade/internal/fallback"
	"github.com/vietddude/cascade/internal/infra/service"
)

// KVGet builds an operation that reads one key from whichever tier answers
// first.
func KVGet(key string) fallback.Operation {
	return func(ctx context.Context, svc service.Service) (any, error) {
		kv, ok := svc.(service.KV)
		if !ok {
			return nil, fmt.Errorf("service %s does not support kv reads", svc.ID())
		}
		value, err := kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return value, nil
	}
}

// KVSet builds an operation that writes the pair into the best available
// tier.
func KVSet(key, value string, ttl time.Duration) fallback.Operation {
	return func(ctx context.Context, svc service.Service) (any, error) {
		kv, ok := svc.(service.KV)
		if !ok {
			return nil, fmt.Errorf("service %s does not support kv writes", svc.ID())
		}
		if err := kv.Set(ctx, key, value, ttl); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// KVDelete builds an operation that removes the key from the best available
// tier.
func KVDelete(key string) fallback.Operation {
	return func(ctx context.Context, svc service.Service) (any, error) {
		kv, ok := svc.(service.KV)
		if !ok {
			return nil, fmt.Errorf("service %s does not support kv deletes", svc.ID())
		}
		if err := kv.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// AuthCheck builds an operation that verifies a stored credential for the
// client. A missing credential fails the attempt, so the result can only be
// positive when some tier actually verified it.
func AuthCheck(clientID string) fallback.Operation {
	return func(ctx context.Context, svc service.Service) (any, error) {
		kv, ok := svc.(service.KV)
		if !ok {
			return nil, fmt.Errorf("service %s does not support auth lookups", svc.ID())
		}
		token, err := kv.Get(ctx, "auth:"+clientID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"authenticated": true,
			"client_id":     clientID,
			"token":         token,
		}, nil
	}
}
