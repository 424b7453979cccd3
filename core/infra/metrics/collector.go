package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/keyvalue-dev/keyvalue/core/infra/logging"
)

// Collector measures a single KV request from start to terminal outcome.
// Finish must be called exactly once on every exit path; extra calls are
// ignored so error paths cannot double-report.
type Collector struct {
	metrics   KVMetrics
	tenantID  string
	operation string
	start     time.Time
	once      sync.Once
	finished  bool
}

// StartCollector begins timing a request for the given tenant and operation.
func StartCollector(m KVMetrics, tenantID, operation string) *Collector {
	if m == nil {
		m = Noop{}
	}
	return &Collector{
		metrics:   m,
		tenantID:  tenantID,
		operation: operation,
		start:     time.Now(),
	}
}

// Finish records the terminal outcome. keyHash is the logging-safe key
// digest; raw keys must never be passed here. objectSize < 0 means the
// request had no observable object size.
func (c *Collector) Finish(statusCode int, keyHash string, objectSize int64) {
	if c == nil {
		return
	}
	c.once.Do(func() {
		c.finished = true
		elapsed := time.Since(c.start)
		status := strconv.Itoa(statusCode)
		c.metrics.ObserveKVRequest(c.operation, status, elapsed.Seconds())
		fields := []interface{}{
			"tenant_id", c.tenantID,
			"operation", c.operation,
			"status_code", statusCode,
			"latency_ms", elapsed.Milliseconds(),
			"key_hash", keyHash,
		}
		if objectSize >= 0 {
			c.metrics.ObserveObjectSize(c.operation, float64(objectSize))
			fields = append(fields, "object_size", objectSize)
		}
		logging.Info("kv-gateway", "request_completed", fields...)
	})
}

// Finished reports whether Finish has run; used by tests to assert the
// exactly-once contract.
func (c *Collector) Finished() bool {
	if c == nil {
		return false
	}
	return c.finished
}
