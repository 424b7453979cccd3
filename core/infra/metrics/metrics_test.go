package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestProm(t *testing.T) *Prom {
	t.Helper()
	return NewPromWithRegisterer("keyvalue", prometheus.NewRegistry())
}

func TestPromObserveKVRequest(t *testing.T) {
	p := newTestProm(t)
	p.ObserveKVRequest("GET", "200", 0.01)
	p.ObserveKVRequest("GET", "200", 0.02)
	p.ObserveKVRequest("PUT", "412", 0.03)

	if got := testutil.ToFloat64(p.kvRequests.WithLabelValues("GET", "200")); got != 2 {
		t.Fatalf("unexpected GET/200 count: %v", got)
	}
	if got := testutil.ToFloat64(p.kvRequests.WithLabelValues("PUT", "412")); got != 1 {
		t.Fatalf("unexpected PUT/412 count: %v", got)
	}
}

func TestPromObserveHTTPRequest(t *testing.T) {
	p := newTestProm(t)
	p.ObserveRequest("POST", "/v1/admin/tenants", "201", 0.1)
	if got := testutil.ToFloat64(p.httpRequests.WithLabelValues("POST", "/v1/admin/tenants", "201")); got != 1 {
		t.Fatalf("unexpected admin count: %v", got)
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	requests int
	sizes    []float64
}

func (r *recordingMetrics) ObserveKVRequest(string, string, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
}

func (r *recordingMetrics) ObserveObjectSize(_ string, size float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sizes = append(r.sizes, size)
}

func TestCollectorFinishOnce(t *testing.T) {
	rec := &recordingMetrics{}
	c := StartCollector(rec, "tenant-1", "PUT")
	if c.Finished() {
		t.Fatalf("collector finished before Finish")
	}
	c.Finish(200, "deadbeef", 42)
	c.Finish(500, "deadbeef", 42)
	if rec.requests != 1 {
		t.Fatalf("expected exactly one request record, got %d", rec.requests)
	}
	if len(rec.sizes) != 1 || rec.sizes[0] != 42 {
		t.Fatalf("unexpected size records: %v", rec.sizes)
	}
	if !c.Finished() {
		t.Fatalf("collector should be finished")
	}
}

func TestCollectorOmitsUnknownSize(t *testing.T) {
	rec := &recordingMetrics{}
	c := StartCollector(rec, "tenant-1", "DELETE")
	c.Finish(404, "deadbeef", -1)
	if len(rec.sizes) != 0 {
		t.Fatalf("size should be omitted for negative values: %v", rec.sizes)
	}
}

func TestCollectorNilMetrics(t *testing.T) {
	c := StartCollector(nil, "tenant-1", "GET")
	c.Finish(200, "deadbeef", 1)
	if !c.Finished() {
		t.Fatalf("collector should finish with noop metrics")
	}
}
