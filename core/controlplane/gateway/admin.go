package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/keyvalue-dev/keyvalue/core/infra/bus"
	"github.com/keyvalue-dev/keyvalue/core/infra/logging"
	"github.com/keyvalue-dev/keyvalue/core/tenant"
)

// requireAdmin gates control-plane routes behind the shared admin key.
// With no keys configured the admin surface is disabled entirely.
func (s *server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.adminKeys) == 0 {
			writeError(w, http.StatusServiceUnavailable, codeForbidden, "Admin API is disabled")
			return
		}
		if _, ok := s.adminKeys[r.Header.Get("X-Admin-Key")]; !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid admin key")
			return
		}
		next(w, r)
	}
}

type provisionRequest struct {
	Region string `json:"region"`
	ZoneID string `json:"zone_id"`
}

type provisionResponse struct {
	Tenant tenant.Tenant `json:"tenant"`
	Token  tenant.Token  `json:"token"`
}

func (s *server) handleProvisionTenant(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInternal, "Malformed request body")
		return
	}

	ten, token, err := s.registry.Provision(r.Context(), req.Region, req.ZoneID)
	if err != nil {
		logging.Error(component, "provision failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Provisioning failed")
		return
	}
	logging.Info(component, "tenant provisioned", "tenant_id", ten.ID, "region", ten.Region, "zone_id", ten.ZoneID)
	s.publish(bus.SubjectTenantProvisioned, bus.NewTenantEvent(ten.ID, string(ten.Status), ten.Region, ten.ZoneID))

	writeJSON(w, http.StatusCreated, provisionResponse{Tenant: ten, Token: token})
}

func (s *server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	ten, err := s.registry.LookupByID(r.Context(), r.PathValue("id"))
	if err != nil {
		logging.Error(component, "tenant lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}
	if ten == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, ten)
}

func (s *server) handleSuspendTenant(w http.ResponseWriter, r *http.Request) {
	s.setTenantStatus(w, r, tenant.StatusSuspended, bus.SubjectTenantSuspended)
}

func (s *server) handleReactivateTenant(w http.ResponseWriter, r *http.Request) {
	s.setTenantStatus(w, r, tenant.StatusActive, bus.SubjectTenantReactivated)
}

func (s *server) setTenantStatus(w http.ResponseWriter, r *http.Request, status tenant.Status, subject string) {
	id := r.PathValue("id")
	var (
		ok  bool
		err error
	)
	if status == tenant.StatusSuspended {
		ok, err = s.registry.Suspend(r.Context(), id)
	} else {
		ok, err = s.registry.Reactivate(r.Context(), id)
	}
	if err != nil {
		logging.Error(component, "status change failed", "tenant_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "Tenant not found")
		return
	}
	logging.Info(component, "tenant status changed", "tenant_id", id, "status", string(status))
	s.publish(subject, bus.NewTenantEvent(id, string(status), "", ""))

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	ok, err := s.registry.Revoke(r.Context(), token)
	if err != nil {
		logging.Error(component, "revoke failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "Token not found")
		return
	}
	logging.Info(component, "token revoked")
	s.publish(bus.SubjectTokenRevoked, bus.NewTenantEvent("", "", "", ""))

	w.WriteHeader(http.StatusNoContent)
}

// publish emits a lifecycle event; broker failures are logged, never
// surfaced to admin callers.
func (s *server) publish(subject string, event bus.TenantEvent) {
	if err := s.bus.Publish(subject, event); err != nil {
		logging.Warn(component, "event publish failed", "subject", subject, "error", err)
	}
}
