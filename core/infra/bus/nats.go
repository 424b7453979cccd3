// Package bus publishes tenant lifecycle events to NATS. The gateway runs
// fine without a broker; callers fall back to the Noop publisher.
package bus

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/keyvalue-dev/keyvalue/core/infra/logging"
)

const (
	SubjectTenantProvisioned = "tenant.provisioned"
	SubjectTenantSuspended   = "tenant.suspended"
	SubjectTenantReactivated = "tenant.reactivated"
	SubjectTokenRevoked      = "tenant.token.revoked"
)

var (
	errNilBus       = errors.New("nats bus not initialized")
	errEmptySubject = errors.New("empty subject")
)

// TenantEvent is the JSON payload for lifecycle subjects.
type TenantEvent struct {
	TenantID string `json:"tenant_id"`
	Status   string `json:"status,omitempty"`
	Region   string `json:"region,omitempty"`
	ZoneID   string `json:"zone_id,omitempty"`
	At       string `json:"at"`
}

// NewTenantEvent stamps an event with the current time.
func NewTenantEvent(tenantID, status, region, zoneID string) TenantEvent {
	return TenantEvent{
		TenantID: tenantID,
		Status:   status,
		Region:   region,
		ZoneID:   zoneID,
		At:       time.Now().UTC().Format(time.RFC3339),
	}
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(subject string, event TenantEvent) error
	Close()
}

// Noop implements Publisher without a broker.
type Noop struct{}

func (Noop) Publish(string, TenantEvent) error { return nil }
func (Noop) Close()                            {}

// NatsBus is a thin wrapper over a NATS connection that speaks JSON events.
type NatsBus struct {
	nc *nats.Conn
}

var _ Publisher = (*NatsBus)(nil)

// NewNatsBus dials NATS at the provided URL.
func NewNatsBus(url string) (*NatsBus, error) {
	opts := []nats.Option{
		nats.Name("keyvalue-bus"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("bus", "disconnected from nats", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("bus", "reconnected to nats", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Info("bus", "connection closed")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsBus{nc: nc}, nil
}

// Close shuts down the underlying NATS connection.
func (b *NatsBus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}

// Publish sends a JSON-encoded event on the given subject.
func (b *NatsBus) Publish(subject string, event TenantEvent) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if subject == "" {
		return errEmptySubject
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject, data)
}
