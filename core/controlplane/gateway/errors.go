package gateway

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes. Clients switch on these, not on the
// human-readable message.
const (
	codeUnauthorized       = "UNAUTHORIZED"
	codeForbidden          = "FORBIDDEN"
	codeNotFound           = "NOT_FOUND"
	codeKeyTooLong         = "KEY_TOO_LONG"
	codeObjectTooLarge     = "OBJECT_TOO_LARGE"
	codePreconditionFailed = "PRECONDITION_FAILED"
	codeInternal           = "INTERNAL_ERROR"
)

type apiError struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Status int    `json:"status"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: message, Code: code, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// quoteETag renders the stored ETag in HTTP header form.
func quoteETag(etag string) string {
	return `"` + etag + `"`
}
