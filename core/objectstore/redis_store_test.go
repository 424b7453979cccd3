package objectstore

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/keyvalue-dev/keyvalue/core/infra/keyspace"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)
	store, err := NewRedisStore("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.Put(ctx, "ns-a", "greeting", []byte("hello"), "text/plain", PutConditions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !res.Created {
		t.Fatalf("expected created result")
	}
	if res.Meta.ETag == "" || res.Meta.ContentLength != 5 {
		t.Fatalf("unexpected metadata: %+v", res.Meta)
	}

	value, meta, err := store.Get(ctx, "ns-a", "greeting")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "hello" {
		t.Fatalf("unexpected value: %s", value)
	}
	if meta.ETag != res.Meta.ETag || meta.ContentType != "text/plain" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.CreatedAt == "" {
		t.Fatalf("expected created_at stamp")
	}
}

func TestOverwriteRotatesETag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Put(ctx, "ns-a", "k", []byte("v1"), "", PutConditions{})
	if err != nil {
		t.Fatalf("put v1: %v", err)
	}
	second, err := store.Put(ctx, "ns-a", "k", []byte("v2"), "", PutConditions{})
	if err != nil {
		t.Fatalf("put v2: %v", err)
	}
	if first.Meta.ETag == second.Meta.ETag {
		t.Fatalf("etag did not change on overwrite")
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := store.Get(context.Background(), "ns-a", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHeadMatchesGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "ns-a", "k", []byte("abc"), "application/json", PutConditions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, getMeta, err := store.Get(ctx, "ns-a", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	headMeta, err := store.Head(ctx, "ns-a", "k")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if headMeta != getMeta {
		t.Fatalf("head/get metadata mismatch: %+v vs %+v", headMeta, getMeta)
	}
}

func TestHeadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Head(context.Background(), "ns-a", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteObservation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "ns-a", "k", []byte("v"), "", PutConditions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "ns-a", "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "ns-a", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "ns-a", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestIfNoneMatchCreateOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.Put(ctx, "ns-a", "fresh", []byte("v1"), "", PutConditions{IfNoneMatchAny: true})
	if err != nil {
		t.Fatalf("create put: %v", err)
	}
	if !res.Created {
		t.Fatalf("expected create to proceed")
	}

	res, err = store.Put(ctx, "ns-a", "fresh", []byte("v2"), "", PutConditions{IfNoneMatchAny: true})
	if err != nil {
		t.Fatalf("conflicting create put: %v", err)
	}
	if res.Created {
		t.Fatalf("create against existing object must not proceed")
	}

	value, _, err := store.Get(ctx, "ns-a", "fresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "v1" {
		t.Fatalf("stored value changed by failed create: %s", value)
	}
}

func TestIfMatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.Put(ctx, "ns-a", "k", []byte("v1"), "", PutConditions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := store.Put(ctx, "ns-a", "k", []byte("v2"), "", PutConditions{IfMatch: "stale"}); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed for stale etag, got %v", err)
	}
	value, _, err := store.Get(ctx, "ns-a", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "v1" {
		t.Fatalf("stored value changed by failed put: %s", value)
	}

	updated, err := store.Put(ctx, "ns-a", "k", []byte("v2"), "", PutConditions{IfMatch: res.Meta.ETag})
	if err != nil {
		t.Fatalf("matching put: %v", err)
	}
	if updated.Meta.ETag == res.Meta.ETag {
		t.Fatalf("etag did not rotate")
	}

	if _, err := store.Put(ctx, "ns-a", "absent", []byte("v"), "", PutConditions{IfMatch: "anything"}); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed for missing object, got %v", err)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "ns-a", "shared-name", []byte("from-a"), "", PutConditions{}); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if _, err := store.Put(ctx, "ns-b", "shared-name", []byte("from-b"), "", PutConditions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}

	valueA, _, err := store.Get(ctx, "ns-a", "shared-name")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	valueB, _, err := store.Get(ctx, "ns-b", "shared-name")
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if string(valueA) != "from-a" || string(valueB) != "from-b" {
		t.Fatalf("namespaces leaked: %s / %s", valueA, valueB)
	}
}

func TestCreateNamespace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateNamespace(ctx, "ns-a", "tenant-1", "use1-az4"); err != nil {
		t.Fatalf("create namespace: %v", err)
	}
	if err := store.CreateNamespace(ctx, "ns-a", "tenant-2", "use1-az4"); !errors.Is(err, ErrNamespaceExists) {
		t.Fatalf("expected ErrNamespaceExists, got %v", err)
	}
}

func TestPhysicalLayout(t *testing.T) {
	if got := valueKey("ns-a", "some/key"); got != "kv:ns-a:"+keyspace.PhysicalKey("some/key") {
		t.Fatalf("unexpected value key: %s", got)
	}
	if got := metaKey("ns-a", "some/key"); got != "kv:meta:ns-a:"+keyspace.PhysicalKey("some/key") {
		t.Fatalf("unexpected meta key: %s", got)
	}
}
