package bus

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNilBusPublish(t *testing.T) {
	var b *NatsBus
	if err := b.Publish(SubjectTenantProvisioned, TenantEvent{}); !errors.Is(err, errNilBus) {
		t.Fatalf("expected errNilBus, got %v", err)
	}
	b.Close()
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(SubjectTenantSuspended, TenantEvent{TenantID: "t1"}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
	p.Close()
}

func TestNewTenantEventShape(t *testing.T) {
	ev := NewTenantEvent("t1", "active", "us-east-1", "use1-az4")
	if ev.At == "" {
		t.Fatalf("expected timestamp")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["tenant_id"] != "t1" || decoded["zone_id"] != "use1-az4" {
		t.Fatalf("unexpected payload: %v", decoded)
	}
}

func TestNewNatsBusBadURL(t *testing.T) {
	if _, err := NewNatsBus("nats://127.0.0.1:1"); err == nil {
		t.Fatalf("expected connection error")
	}
}
