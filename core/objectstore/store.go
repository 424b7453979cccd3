// Package objectstore provides namespaced object storage with conditional
// writes. Error kinds are decided here, at the adapter boundary; callers
// must never inspect backend-specific error shapes.
package objectstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports that no object exists under the key.
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed reports an If-Match conflict: the object is
	// missing or its current ETag differs from the expected one.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrNamespaceExists reports a namespace collision during provisioning.
	ErrNamespaceExists = errors.New("namespace already exists")
)

// Metadata describes a stored object.
type Metadata struct {
	ETag          string `json:"etag"`
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
	// CreatedAt is stamped on every write, including overwrites; it is the
	// last-write timestamp despite the name, matching the wire header
	// X-Created-At.
	CreatedAt string `json:"created_at,omitempty"`
}

// PutConditions constrains a write. The zero value writes unconditionally.
type PutConditions struct {
	// IfMatch requires the current ETag (unquoted) to equal this value.
	IfMatch string
	// IfNoneMatchAny requires that no object exists under the key.
	IfNoneMatchAny bool
}

// PutResult reports the outcome of a Put.
type PutResult struct {
	Meta Metadata
	// Created is false only when IfNoneMatchAny lost to an existing
	// object; the write did not happen and no error is returned.
	Created bool
}

// Store is a uniform interface over a namespaced object backend. Keys are
// logical; implementations apply the hash-sharded physical layout.
type Store interface {
	// CreateNamespace reserves an isolated namespace for a tenant. It must
	// complete before the tenant is registered anywhere.
	CreateNamespace(ctx context.Context, namespace, tenantID, zoneID string) error
	// Put writes value under key, evaluating conditions atomically with
	// the write.
	Put(ctx context.Context, namespace, key string, value []byte, contentType string, cond PutConditions) (PutResult, error)
	// Get returns the value and its metadata, or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, Metadata, error)
	// Head returns metadata only, or ErrNotFound.
	Head(ctx context.Context, namespace, key string) (Metadata, error)
	// Delete removes the object, or returns ErrNotFound. The removal is
	// atomic: concurrent deleters see exactly one success.
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}
