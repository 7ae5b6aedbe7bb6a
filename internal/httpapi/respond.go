package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/shard"
)

// writeJSON encodes data as the response body, matching teacher
// internal/server/handlers.go's respondJSON.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError shapes a structured error body — `detail`, `request_id`,
// and an error type — per §4.9 and §6.1, generalizing teacher
// internal/server/handlers.go's respondError to a typed-error-aware
// status mapping instead of a single caller-supplied status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := classifyError(err)
	if status >= 500 {
		log.Printf("[HTTP_ERROR] request_id=%s status=%d: %v", RequestID(r), status, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", RequestID(r))
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"detail":     err.Error(),
		"request_id": RequestID(r),
		"error_type": errType,
	})
}

// classifyError maps a typed domain error to an HTTP status and a
// short error-type label, the dispatch table §4.9 calls for.
func classifyError(err error) (int, string) {
	var siteNotFound *artifacts.SiteNotFound
	var folioNotFound *artifacts.FolioNotFound
	var threadNotFound *artifacts.ThreadNotFound
	var titleInvalid *artifacts.TitleInvalid
	var validationErr *artifacts.ValidationError
	var objSiteNotFound *objectstore.ErrSiteNotFound
	var mergePrecondition *shard.ErrMergePrecondition
	var cleanupPrecondition *shard.ErrCleanupPrecondition

	var rateLimited *rateLimitedError
	var panicked *internalPanic
	var notFound *notFoundError

	switch {
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &panicked):
		return http.StatusInternalServerError, "internal_error"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &siteNotFound):
		return http.StatusNotFound, "site_not_found"
	case errors.As(err, &folioNotFound):
		return http.StatusNotFound, "folio_not_found"
	case errors.As(err, &threadNotFound):
		return http.StatusNotFound, "thread_not_found"
	case errors.As(err, &objSiteNotFound):
		return http.StatusNotFound, "site_not_found"
	case errors.As(err, &titleInvalid):
		return http.StatusBadRequest, "title_invalid"
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &mergePrecondition):
		return http.StatusConflict, "merge_precondition"
	case errors.As(err, &cleanupPrecondition):
		return http.StatusConflict, "cleanup_precondition"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// notFoundError covers resources with no dedicated typed error in
// their owning package (shards, yields, screenshots).
type notFoundError struct{ reason string }

func (e *notFoundError) Error() string { return e.reason }

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &artifacts.ValidationError{Reason: "invalid request body: " + err.Error()}
	}
	return nil
}
