package objectstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyvalue-dev/keyvalue/core/infra/keyspace"
	"github.com/keyvalue-dev/keyvalue/core/infra/redisutil"
)

const (
	defaultRedisURL       = "redis://localhost:6379"
	defaultReadOpTimeout  = 2 * time.Second
	defaultWriteOpTimeout = 5 * time.Second

	// conditional puts re-check their precondition on each optimistic
	// retry, so losing a WATCH race never corrupts the outcome.
	watchRetries = 3

	serviceLabel = "keyvalue.dev"
)

// RedisStore implements Store using Redis. Values and metadata live under
// namespace-scoped keys; the ETag is the hex MD5 of the content.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed object store from a redis:// URL.
func NewRedisStore(url string) (*RedisStore, error) {
	if url == "" {
		url = defaultRedisURL
	}
	client, err := redisutil.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping verifies backend connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("object store unavailable")
	}
	return s.client.Ping(ctx).Err()
}

type namespaceRecord struct {
	TenantID  string `json:"tenant_id"`
	ZoneID    string `json:"zone_id"`
	Service   string `json:"service"`
	CreatedAt string `json:"created_at"`
}

func (s *RedisStore) CreateNamespace(ctx context.Context, namespace, tenantID, zoneID string) error {
	if s == nil || s.client == nil {
		return errors.New("object store unavailable")
	}
	cctx, cancel := writeContext(ctx)
	defer cancel()
	record, err := json.Marshal(namespaceRecord{
		TenantID:  tenantID,
		ZoneID:    zoneID,
		Service:   serviceLabel,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal namespace record: %w", err)
	}
	ok, err := s.client.SetNX(cctx, namespaceKey(namespace), record, 0).Result()
	if err != nil {
		return fmt.Errorf("create namespace: %w", err)
	}
	if !ok {
		return ErrNamespaceExists
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, namespace, key string, value []byte, contentType string, cond PutConditions) (PutResult, error) {
	if s == nil || s.client == nil {
		return PutResult{}, errors.New("object store unavailable")
	}
	cctx, cancel := writeContext(ctx)
	defer cancel()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	meta := Metadata{
		ETag:          etagFor(value),
		ContentType:   contentType,
		ContentLength: int64(len(value)),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return PutResult{}, fmt.Errorf("marshal metadata: %w", err)
	}

	vk := valueKey(namespace, key)
	mk := metaKey(namespace, key)

	if cond.IfMatch == "" && !cond.IfNoneMatchAny {
		pipe := s.client.TxPipeline()
		pipe.Set(cctx, vk, value, 0)
		pipe.Set(cctx, mk, payload, 0)
		if _, err := pipe.Exec(cctx); err != nil {
			return PutResult{}, fmt.Errorf("put object: %w", err)
		}
		return PutResult{Meta: meta, Created: true}, nil
	}

	for attempt := 0; attempt < watchRetries; attempt++ {
		err := s.client.Watch(cctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(cctx, mk).Bytes()
			exists := err == nil
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("read current metadata: %w", err)
			}
			if cond.IfNoneMatchAny && exists {
				return errCreateConflict
			}
			if cond.IfMatch != "" {
				if !exists {
					return ErrPreconditionFailed
				}
				var current Metadata
				if err := json.Unmarshal(raw, &current); err != nil {
					return fmt.Errorf("decode current metadata: %w", err)
				}
				if current.ETag != cond.IfMatch {
					return ErrPreconditionFailed
				}
			}
			_, err = tx.TxPipelined(cctx, func(pipe redis.Pipeliner) error {
				pipe.Set(cctx, vk, value, 0)
				pipe.Set(cctx, mk, payload, 0)
				return nil
			})
			return err
		}, mk)
		switch {
		case err == nil:
			return PutResult{Meta: meta, Created: true}, nil
		case errors.Is(err, errCreateConflict):
			return PutResult{Created: false}, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return PutResult{}, err
		}
	}
	return PutResult{}, fmt.Errorf("conditional put: %w", redis.TxFailedErr)
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) ([]byte, Metadata, error) {
	if s == nil || s.client == nil {
		return nil, Metadata{}, errors.New("object store unavailable")
	}
	cctx, cancel := readContext(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	valueCmd := pipe.Get(cctx, valueKey(namespace, key))
	metaCmd := pipe.Get(cctx, metaKey(namespace, key))
	_, _ = pipe.Exec(cctx)

	value, err := valueCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, Metadata{}, ErrNotFound
		}
		return nil, Metadata{}, fmt.Errorf("get object: %w", err)
	}
	meta := Metadata{
		ETag:          etagFor(value),
		ContentType:   "application/octet-stream",
		ContentLength: int64(len(value)),
	}
	if raw, err := metaCmd.Bytes(); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	return value, meta, nil
}

func (s *RedisStore) Head(ctx context.Context, namespace, key string) (Metadata, error) {
	if s == nil || s.client == nil {
		return Metadata{}, errors.New("object store unavailable")
	}
	cctx, cancel := readContext(ctx)
	defer cancel()

	raw, err := s.client.Get(cctx, metaKey(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, fmt.Errorf("head object: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	if s == nil || s.client == nil {
		return errors.New("object store unavailable")
	}
	cctx, cancel := writeContext(ctx)
	defer cancel()

	n, err := s.client.Del(cctx, valueKey(namespace, key), metaKey(namespace, key)).Result()
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// errCreateConflict aborts a create-only write that found an existing
// object; it never leaves Put.
var errCreateConflict = errors.New("object already exists")

func etagFor(value []byte) string {
	sum := md5.Sum(value)
	return hex.EncodeToString(sum[:])
}

func namespaceKey(namespace string) string {
	return "kv:ns:" + namespace
}

func valueKey(namespace, key string) string {
	return "kv:" + namespace + ":" + keyspace.PhysicalKey(key)
}

func metaKey(namespace, key string) string {
	return "kv:meta:" + namespace + ":" + keyspace.PhysicalKey(key)
}

// readContext derives a bounded context that still honors caller
// cancellation; an aborted request stops waiting on the backend.
func readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, defaultReadOpTimeout)
}

// writeContext detaches from caller cancellation so a dropped connection
// cannot tear a write mid-flight; object writes are whole-object anyway,
// the timeout just bounds the detachment.
func writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), defaultWriteOpTimeout)
}
