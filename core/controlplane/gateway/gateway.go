// Package gateway is the HTTP control plane and data plane for the
// multi-tenant KV service: bearer-token auth, conditional reads and writes
// against the object store, and the tenant admin API.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/keyvalue-dev/keyvalue/core/infra/bus"
	"github.com/keyvalue-dev/keyvalue/core/infra/config"
	"github.com/keyvalue-dev/keyvalue/core/infra/logging"
	"github.com/keyvalue-dev/keyvalue/core/infra/metrics"
	"github.com/keyvalue-dev/keyvalue/core/objectstore"
	"github.com/keyvalue-dev/keyvalue/core/tenant"
)

const component = "kv-gateway"

type server struct {
	registry    tenant.Registry
	store       objectstore.Store
	bus         bus.Publisher
	kvMetrics   metrics.KVMetrics
	httpMetrics metrics.HTTPMetrics
	limits      config.Limits
	adminKeys   map[string]struct{}
	started     time.Time
}

// newServer wires the handler graph; transport setup lives in Run.
func newServer(registry tenant.Registry, store objectstore.Store, publisher bus.Publisher,
	kv metrics.KVMetrics, httpm metrics.HTTPMetrics, limits config.Limits, adminKeys []string) *server {
	keys := make(map[string]struct{}, len(adminKeys))
	for _, k := range adminKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	if kv == nil {
		kv = metrics.Noop{}
	}
	if httpm == nil {
		httpm = metrics.Noop{}
	}
	if publisher == nil {
		publisher = bus.Noop{}
	}
	return &server{
		registry:    registry,
		store:       store,
		bus:         publisher,
		kvMetrics:   kv,
		httpMetrics: httpm,
		limits:      limits,
		adminKeys:   keys,
		started:     time.Now(),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Data plane. The trailing wildcard keeps slashes inside logical keys.
	mux.HandleFunc("GET /v1/kv/{key...}", s.instrumented("/v1/kv", s.handleGetKV))
	mux.HandleFunc("HEAD /v1/kv/{key...}", s.instrumented("/v1/kv", s.handleHeadKV))
	mux.HandleFunc("PUT /v1/kv/{key...}", s.instrumented("/v1/kv", s.handlePutKV))
	mux.HandleFunc("DELETE /v1/kv/{key...}", s.instrumented("/v1/kv", s.handleDeleteKV))

	// Control plane.
	mux.HandleFunc("POST /v1/admin/tenants", s.instrumented("/v1/admin/tenants", s.requireAdmin(s.handleProvisionTenant)))
	mux.HandleFunc("GET /v1/admin/tenants/{id}", s.instrumented("/v1/admin/tenants/{id}", s.requireAdmin(s.handleGetTenant)))
	mux.HandleFunc("POST /v1/admin/tenants/{id}/suspend", s.instrumented("/v1/admin/tenants/{id}/suspend", s.requireAdmin(s.handleSuspendTenant)))
	mux.HandleFunc("POST /v1/admin/tenants/{id}/reactivate", s.instrumented("/v1/admin/tenants/{id}/reactivate", s.requireAdmin(s.handleReactivateTenant)))
	mux.HandleFunc("DELETE /v1/admin/tokens/{token}", s.instrumented("/v1/admin/tokens", s.requireAdmin(s.handleRevokeToken)))

	mux.HandleFunc("GET /health", s.instrumented("/health", s.handleHealth))

	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Truncate(time.Second).String(),
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrumented wraps a handler with route-level HTTP metrics. KV request
// metrics are reported separately with tenant context by the handlers.
func (s *server) instrumented(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.httpMetrics.ObserveRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start).Seconds())
	}
}

// Run builds the full gateway from configuration and serves until SIGINT or
// SIGTERM.
func Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	limits, err := config.LoadLimits(cfg.LimitsPath)
	if err != nil {
		return fmt.Errorf("load limits: %w", err)
	}

	store, err := objectstore.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect object store: %w", err)
	}
	defer store.Close()

	var registry tenant.Registry
	switch cfg.TenantStore {
	case "redis":
		redisRegistry, err := tenant.NewRedisRegistry(cfg.RedisURL, store, cfg.Region, cfg.ZoneID)
		if err != nil {
			return fmt.Errorf("connect tenant registry: %w", err)
		}
		defer redisRegistry.Close()
		registry = redisRegistry
	default:
		registry = tenant.NewMemoryRegistry(store, cfg.Region, cfg.ZoneID)
	}

	var publisher bus.Publisher = bus.Noop{}
	if cfg.NatsURL != "" {
		natsBus, err := bus.NewNatsBus(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer natsBus.Close()
		publisher = natsBus
	} else {
		logging.Warn(component, "NATS_URL not set, lifecycle events disabled")
	}

	prom := metrics.NewProm("keyvalue")
	srv := newServer(registry, store, publisher, prom, prom, limits, config.AdminAPIKeys())

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logging.Info(component, "http server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logging.Info(component, "metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logging.Info(component, "shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(component, "http shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(component, "metrics shutdown failed", "error", err)
	}
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
