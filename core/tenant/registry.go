package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyvalue-dev/keyvalue/core/infra/config"
	"github.com/keyvalue-dev/keyvalue/core/infra/keyspace"
	"github.com/keyvalue-dev/keyvalue/core/objectstore"
)

// ErrProvisioning reports a failed provisioning attempt. No partial tenant
// state is registered when it is returned.
var ErrProvisioning = errors.New("tenant provisioning failed")

// Registry maps tenant IDs and API tokens to tenant records.
// Implementations must support concurrent readers; writes are rare
// (provision, suspend, reactivate, revoke).
type Registry interface {
	// Provision creates an isolated namespace, registers the tenant as
	// active, and issues one token. Empty region/zone fall back to the
	// registry defaults. The namespace must exist before the tenant is
	// visible to lookups.
	Provision(ctx context.Context, region, zoneID string) (Tenant, Token, error)
	// LookupByID returns nil without error for unknown IDs.
	LookupByID(ctx context.Context, id string) (*Tenant, error)
	// LookupByToken returns nil without error for unknown tokens.
	LookupByToken(ctx context.Context, token string) (*Tenant, error)
	// Suspend is idempotent; it returns false only for unknown tenants.
	Suspend(ctx context.Context, id string) (bool, error)
	// Reactivate is idempotent; it returns false only for unknown tenants.
	Reactivate(ctx context.Context, id string) (bool, error)
	// Revoke hard-deletes a token mapping; false for unknown tokens.
	Revoke(ctx context.Context, token string) (bool, error)
	// Register seeds an existing tenant and token, bypassing provisioning.
	Register(ctx context.Context, t Tenant, token string) error
}

// newTenant assembles the records for a fresh tenant. The caller is
// responsible for namespace creation and registration ordering.
func newTenant(region, zoneID, defaultRegion, defaultZone string) (Tenant, Token, error) {
	if region == "" {
		region = defaultRegion
	}
	if zoneID == "" {
		zoneID = defaultZone
	}
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	secret, err := keyspace.GenerateToken()
	if err != nil {
		return Tenant{}, Token{}, fmt.Errorf("%w: generate token: %w", ErrProvisioning, err)
	}
	t := Tenant{
		ID:         id,
		CreatedAt:  now,
		Region:     region,
		ZoneID:     zoneID,
		BucketName: config.BucketName(id, zoneID),
		Status:     StatusActive,
	}
	return t, Token{Token: secret, TenantID: id, CreatedAt: now}, nil
}

// MemoryRegistry is a concurrency-safe in-memory Registry. Production
// deployments swap in the Redis implementation behind the same interface.
type MemoryRegistry struct {
	store         objectstore.Store
	defaultRegion string
	defaultZone   string

	mu            sync.RWMutex
	tenants       map[string]Tenant
	tokenToTenant map[string]string
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry constructs an empty in-memory registry.
func NewMemoryRegistry(store objectstore.Store, defaultRegion, defaultZone string) *MemoryRegistry {
	return &MemoryRegistry{
		store:         store,
		defaultRegion: defaultRegion,
		defaultZone:   defaultZone,
		tenants:       map[string]Tenant{},
		tokenToTenant: map[string]string{},
	}
}

func (r *MemoryRegistry) Provision(ctx context.Context, region, zoneID string) (Tenant, Token, error) {
	t, token, err := newTenant(region, zoneID, r.defaultRegion, r.defaultZone)
	if err != nil {
		return Tenant{}, Token{}, err
	}
	if err := r.store.CreateNamespace(ctx, t.BucketName, t.ID, t.ZoneID); err != nil {
		return Tenant{}, Token{}, fmt.Errorf("%w: create namespace: %w", ErrProvisioning, err)
	}
	r.mu.Lock()
	r.tenants[t.ID] = t
	r.tokenToTenant[token.Token] = t.ID
	r.mu.Unlock()
	return t, token, nil
}

func (r *MemoryRegistry) LookupByID(_ context.Context, id string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tenants[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryRegistry) LookupByToken(_ context.Context, token string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.tokenToTenant[token]
	if !ok {
		return nil, nil
	}
	if t, ok := r.tenants[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryRegistry) Suspend(_ context.Context, id string) (bool, error) {
	return r.setStatus(id, StatusSuspended), nil
}

func (r *MemoryRegistry) Reactivate(_ context.Context, id string) (bool, error) {
	return r.setStatus(id, StatusActive), nil
}

func (r *MemoryRegistry) setStatus(id string, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return false
	}
	t.Status = status
	r.tenants[id] = t
	return true
}

func (r *MemoryRegistry) Revoke(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokenToTenant[token]; !ok {
		return false, nil
	}
	delete(r.tokenToTenant, token)
	return true, nil
}

func (r *MemoryRegistry) Register(_ context.Context, t Tenant, token string) error {
	if t.ID == "" || token == "" {
		return errors.New("tenant id and token required")
	}
	r.mu.Lock()
	r.tenants[t.ID] = t
	r.tokenToTenant[token] = t.ID
	r.mu.Unlock()
	return nil
}
