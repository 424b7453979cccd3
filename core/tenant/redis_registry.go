package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyvalue-dev/keyvalue/core/infra/redisutil"
	"github.com/keyvalue-dev/keyvalue/core/objectstore"
)

const registryOpTimeout = 2 * time.Second

// RedisRegistry is a durable Registry backed by Redis.
type RedisRegistry struct {
	client        *redis.Client
	store         objectstore.Store
	defaultRegion string
	defaultZone   string
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry constructs a Redis-backed registry from a redis:// URL.
func NewRedisRegistry(url string, store objectstore.Store, defaultRegion, defaultZone string) (*RedisRegistry, error) {
	client, err := redisutil.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisRegistry{
		client:        client,
		store:         store,
		defaultRegion: defaultRegion,
		defaultZone:   defaultZone,
	}, nil
}

// Close closes the underlying Redis client.
func (r *RedisRegistry) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisRegistry) Provision(ctx context.Context, region, zoneID string) (Tenant, Token, error) {
	t, token, err := newTenant(region, zoneID, r.defaultRegion, r.defaultZone)
	if err != nil {
		return Tenant{}, Token{}, err
	}
	if err := r.store.CreateNamespace(ctx, t.BucketName, t.ID, t.ZoneID); err != nil {
		return Tenant{}, Token{}, fmt.Errorf("%w: create namespace: %w", ErrProvisioning, err)
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return Tenant{}, Token{}, fmt.Errorf("%w: marshal tenant: %w", ErrProvisioning, err)
	}
	cctx, cancel := r.opContext(ctx)
	defer cancel()
	pipe := r.client.TxPipeline()
	pipe.Set(cctx, tenantKey(t.ID), payload, 0)
	pipe.Set(cctx, tokenKey(token.Token), t.ID, 0)
	if _, err := pipe.Exec(cctx); err != nil {
		return Tenant{}, Token{}, fmt.Errorf("%w: persist tenant: %w", ErrProvisioning, err)
	}
	return t, token, nil
}

func (r *RedisRegistry) LookupByID(ctx context.Context, id string) (*Tenant, error) {
	cctx, cancel := r.opContext(ctx)
	defer cancel()
	raw, err := r.client.Get(cctx, tenantKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode tenant: %w", err)
	}
	return &t, nil
}

func (r *RedisRegistry) LookupByToken(ctx context.Context, token string) (*Tenant, error) {
	cctx, cancel := r.opContext(ctx)
	defer cancel()
	id, err := r.client.Get(cctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return r.LookupByID(ctx, id)
}

func (r *RedisRegistry) Suspend(ctx context.Context, id string) (bool, error) {
	return r.setStatus(ctx, id, StatusSuspended)
}

func (r *RedisRegistry) Reactivate(ctx context.Context, id string) (bool, error) {
	return r.setStatus(ctx, id, StatusActive)
}

func (r *RedisRegistry) setStatus(ctx context.Context, id string, status Status) (bool, error) {
	t, err := r.LookupByID(ctx, id)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, nil
	}
	t.Status = status
	payload, err := json.Marshal(t)
	if err != nil {
		return false, fmt.Errorf("marshal tenant: %w", err)
	}
	cctx, cancel := r.opContext(ctx)
	defer cancel()
	if err := r.client.Set(cctx, tenantKey(id), payload, 0).Err(); err != nil {
		return false, fmt.Errorf("persist tenant status: %w", err)
	}
	return true, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, token string) (bool, error) {
	cctx, cancel := r.opContext(ctx)
	defer cancel()
	n, err := r.client.Del(cctx, tokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRegistry) Register(ctx context.Context, t Tenant, token string) error {
	if t.ID == "" || token == "" {
		return errors.New("tenant id and token required")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tenant: %w", err)
	}
	cctx, cancel := r.opContext(ctx)
	defer cancel()
	pipe := r.client.TxPipeline()
	pipe.Set(cctx, tenantKey(t.ID), payload, 0)
	pipe.Set(cctx, tokenKey(token), t.ID, 0)
	if _, err := pipe.Exec(cctx); err != nil {
		return fmt.Errorf("persist tenant: %w", err)
	}
	return nil
}

func (r *RedisRegistry) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, registryOpTimeout)
}

func tenantKey(id string) string {
	return "tenant:" + id
}

func tokenKey(token string) string {
	return "tenant:token:" + token
}
