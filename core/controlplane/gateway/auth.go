package gateway

import (
	"net/http"
	"strings"

	"github.com/keyvalue-dev/keyvalue/core/infra/logging"
	"github.com/keyvalue-dev/keyvalue/core/tenant"
)

// AuthError carries the HTTP mapping of an authentication failure.
type AuthError struct {
	Code    string
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// extractBearerToken pulls the token out of the Authorization header.
// Returns "" for a missing or malformed header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// authenticate resolves the request's bearer token to an active tenant.
// Unknown and malformed credentials are indistinguishable to the caller.
func (s *server) authenticate(r *http.Request) (*tenant.Tenant, *AuthError) {
	token := extractBearerToken(r)
	if token == "" {
		return nil, &AuthError{
			Code:    codeUnauthorized,
			Status:  http.StatusUnauthorized,
			Message: "Missing or invalid Authorization header",
		}
	}
	ten, err := s.registry.LookupByToken(r.Context(), token)
	if err != nil {
		logging.Error(component, "token lookup failed", "error", err)
		return nil, &AuthError{
			Code:    codeInternal,
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		}
	}
	if ten == nil {
		return nil, &AuthError{
			Code:    codeUnauthorized,
			Status:  http.StatusUnauthorized,
			Message: "Invalid API token",
		}
	}
	if !ten.IsActive() {
		return nil, &AuthError{
			Code:    codeForbidden,
			Status:  http.StatusForbidden,
			Message: "Tenant is suspended",
		}
	}
	return ten, nil
}
