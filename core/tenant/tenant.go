// Package tenant owns tenant records, API tokens, and the provisioning
// lifecycle.
package tenant

// Status is a tenant lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Tenant is an isolated customer account with its own storage namespace.
// Everything except Status is immutable after provisioning.
type Tenant struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"created_at"`
	Region     string `json:"region"`
	ZoneID     string `json:"zone_id"`
	BucketName string `json:"bucket_name"`
	Status     Status `json:"status"`
}

// IsActive reports whether the tenant may serve requests.
func (t Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Token is an API credential bound to a tenant at issuance.
type Token struct {
	Token     string `json:"token"`
	TenantID  string `json:"tenant_id"`
	CreatedAt string `json:"created_at"`
}
