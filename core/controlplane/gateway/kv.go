package gateway

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/keyvalue-dev/keyvalue/core/infra/keyspace"
	"github.com/keyvalue-dev/keyvalue/core/infra/logging"
	"github.com/keyvalue-dev/keyvalue/core/infra/metrics"
	"github.com/keyvalue-dev/keyvalue/core/objectstore"
)

// putResponse is the success body for writes.
type putResponse struct {
	Success bool   `json:"success"`
	ETag    string `json:"etag"`
}

func (s *server) handleGetKV(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	ten, authErr := s.authenticate(r)
	if authErr != nil {
		writeError(w, authErr.Status, authErr.Code, authErr.Message)
		return
	}
	if key == "" {
		writeError(w, http.StatusNotFound, codeNotFound, "Key not found")
		return
	}
	keyHash := keyspace.LoggingHash(key)
	collector := metrics.StartCollector(s.kvMetrics, ten.ID, "GET")

	value, meta, err := s.store.Get(r.Context(), ten.BucketName, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			collector.Finish(http.StatusNotFound, keyHash, -1)
			writeError(w, http.StatusNotFound, codeNotFound, "Key not found")
			return
		}
		collector.Finish(http.StatusInternalServerError, keyHash, -1)
		logging.Error(component, "get failed", "tenant_id", ten.ID, "key_hash", keyHash, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}

	collector.Finish(http.StatusOK, keyHash, meta.ContentLength)
	writeObjectHeaders(w, meta)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (s *server) handleHeadKV(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	ten, authErr := s.authenticate(r)
	if authErr != nil {
		w.WriteHeader(authErr.Status)
		return
	}
	if key == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	keyHash := keyspace.LoggingHash(key)
	collector := metrics.StartCollector(s.kvMetrics, ten.ID, "HEAD")

	meta, err := s.store.Head(r.Context(), ten.BucketName, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			collector.Finish(http.StatusNotFound, keyHash, -1)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		collector.Finish(http.StatusInternalServerError, keyHash, -1)
		logging.Error(component, "head failed", "tenant_id", ten.ID, "key_hash", keyHash, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	collector.Finish(http.StatusOK, keyHash, meta.ContentLength)
	writeObjectHeaders(w, meta)
	w.WriteHeader(http.StatusOK)
}

func (s *server) handlePutKV(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	ten, authErr := s.authenticate(r)
	if authErr != nil {
		writeError(w, authErr.Status, authErr.Code, authErr.Message)
		return
	}
	if key == "" {
		writeError(w, http.StatusNotFound, codeNotFound, "Key not found")
		return
	}
	keyHash := keyspace.LoggingHash(key)
	collector := metrics.StartCollector(s.kvMetrics, ten.ID, "PUT")

	// Key validation happens before the body is read so oversized uploads
	// against a bad key fail cheaply.
	if len(key) > s.limits.MaxKeyLength {
		collector.Finish(http.StatusBadRequest, keyHash, -1)
		writeError(w, http.StatusBadRequest, codeKeyTooLong,
			"Key exceeds maximum length of "+strconv.Itoa(s.limits.MaxKeyLength)+" bytes")
		return
	}

	// Read one byte past the cap so an oversized body is detectable without
	// buffering the whole thing.
	body, err := io.ReadAll(io.LimitReader(r.Body, s.limits.MaxObjectSize+1))
	if err != nil {
		collector.Finish(http.StatusInternalServerError, keyHash, -1)
		logging.Error(component, "read body failed", "tenant_id", ten.ID, "key_hash", keyHash, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}
	if int64(len(body)) > s.limits.MaxObjectSize {
		collector.Finish(http.StatusRequestEntityTooLarge, keyHash, -1)
		writeError(w, http.StatusRequestEntityTooLarge, codeObjectTooLarge,
			"Object exceeds maximum size of "+strconv.FormatInt(s.limits.MaxObjectSize, 10)+" bytes")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	cond := objectstore.PutConditions{
		IfMatch:        strings.ReplaceAll(r.Header.Get("If-Match"), `"`, ""),
		IfNoneMatchAny: strings.TrimSpace(r.Header.Get("If-None-Match")) == "*",
	}

	res, err := s.store.Put(r.Context(), ten.BucketName, key, body, contentType, cond)
	if err != nil {
		if errors.Is(err, objectstore.ErrPreconditionFailed) {
			collector.Finish(http.StatusPreconditionFailed, keyHash, -1)
			writeError(w, http.StatusPreconditionFailed, codePreconditionFailed, "ETag mismatch")
			return
		}
		collector.Finish(http.StatusInternalServerError, keyHash, -1)
		logging.Error(component, "put failed", "tenant_id", ten.ID, "key_hash", keyHash, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}
	if cond.IfNoneMatchAny && !res.Created {
		collector.Finish(http.StatusPreconditionFailed, keyHash, -1)
		writeError(w, http.StatusPreconditionFailed, codePreconditionFailed, "Object already exists")
		return
	}

	status := http.StatusOK
	if cond.IfNoneMatchAny {
		status = http.StatusCreated
	}
	collector.Finish(status, keyHash, int64(len(body)))
	w.Header().Set("ETag", quoteETag(res.Meta.ETag))
	writeJSON(w, status, putResponse{Success: true, ETag: res.Meta.ETag})
}

func (s *server) handleDeleteKV(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	ten, authErr := s.authenticate(r)
	if authErr != nil {
		writeError(w, authErr.Status, authErr.Code, authErr.Message)
		return
	}
	if key == "" {
		writeError(w, http.StatusNotFound, codeNotFound, "Key not found")
		return
	}
	keyHash := keyspace.LoggingHash(key)
	collector := metrics.StartCollector(s.kvMetrics, ten.ID, "DELETE")

	if err := s.store.Delete(r.Context(), ten.BucketName, key); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			collector.Finish(http.StatusNotFound, keyHash, -1)
			writeError(w, http.StatusNotFound, codeNotFound, "Key not found")
			return
		}
		collector.Finish(http.StatusInternalServerError, keyHash, -1)
		logging.Error(component, "delete failed", "tenant_id", ten.ID, "key_hash", keyHash, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}

	collector.Finish(http.StatusNoContent, keyHash, -1)
	w.WriteHeader(http.StatusNoContent)
}

func writeObjectHeaders(w http.ResponseWriter, meta objectstore.Metadata) {
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.ContentLength, 10))
	w.Header().Set("ETag", quoteETag(meta.ETag))
	if meta.CreatedAt != "" {
		w.Header().Set("X-Created-At", meta.CreatedAt)
	}
}
