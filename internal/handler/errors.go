package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"marginalia/internal/domain"
	"marginalia/internal/httputil"
)

// handleError converts domain errors to RFC 7807 HTTP responses. Typed
// errors carry their own status; everything else is a 500.
func handleError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		extras := map[string]interface{}{}
		if len(validationErr.Fields) > 0 {
			extras["fields"] = validationErr.Fields
		}
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, validationErr.Message, extras)
		return
	}

	var overlapErr *domain.OverlapError
	if errors.As(err, &overlapErr) {
		httputil.RespondErrorWithExtras(w, http.StatusConflict, overlapErr.Error(), map[string]interface{}{
			"conflicting_location_id": overlapErr.LocationID,
		})
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleFailure converts domain errors to the {success, errors} envelope
// used by the annotation endpoints.
func handleFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	messages := []string{"internal server error"}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.StatusCode()
		messages = []string{httpErr.Error()}
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		messages = messages[:0]
		names := make([]string, 0, len(validationErr.Fields))
		for name := range validationErr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			messages = append(messages, name+" "+validationErr.Fields[name])
		}
		if len(messages) == 0 {
			messages = []string{validationErr.Message}
		}
	}

	httputil.RespondFailure(w, status, messages)
}

// pathID extracts and validates a uuid path parameter. An empty string
// return means the response has already been written.
func pathID(w http.ResponseWriter, r *http.Request, name string) string {
	id := r.PathValue(name)
	if _, err := uuid.Parse(id); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid "+name)
		return ""
	}
	return id
}
