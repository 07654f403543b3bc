package handler

import (
	"log/slog"
	"net/http"

	"marginalia/internal/domain/models"
	"marginalia/internal/httputil"
	"marginalia/internal/service/annotation"
)

// AnnotationHandler handles HTTP requests for all four annotation kinds.
// One handler serves definitions, links, notes and synonyms; the kind is
// fixed per route at registration time.
type AnnotationHandler struct {
	store  *annotation.Store
	logger *slog.Logger
}

// NewAnnotationHandler creates a new annotation handler.
func NewAnnotationHandler(store *annotation.Store, logger *slog.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		store:  store,
		logger: logger,
	}
}

// Create returns the create handler for one annotation kind. The path's
// {id} is the selected text the annotation attaches to.
func (h *AnnotationHandler) Create(kind models.AnnotationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		selectedTextID := pathID(w, r, "id")
		if selectedTextID == "" {
			return
		}

		var fields annotation.Fields
		if err := httputil.ParseJSON(w, r, &fields); err != nil {
			httputil.RespondFailure(w, http.StatusBadRequest, []string{err.Error()})
			return
		}

		a, err := h.store.Create(r.Context(), selectedTextID, kind, fields)
		if err != nil {
			handleFailure(w, err)
			return
		}

		httputil.RespondSuccess(w, http.StatusCreated, string(kind), a)
	}
}

// Update returns the update handler for one annotation kind.
func (h *AnnotationHandler) Update(kind models.AnnotationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(w, r, "id")
		if id == "" {
			return
		}

		var fields annotation.Fields
		if err := httputil.ParseJSON(w, r, &fields); err != nil {
			httputil.RespondFailure(w, http.StatusBadRequest, []string{err.Error()})
			return
		}

		a, err := h.store.Update(r.Context(), kind, id, fields)
		if err != nil {
			handleFailure(w, err)
			return
		}

		httputil.RespondSuccess(w, http.StatusOK, string(kind), a)
	}
}

// Delete returns the delete handler for one annotation kind.
func (h *AnnotationHandler) Delete(kind models.AnnotationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(w, r, "id")
		if id == "" {
			return
		}

		if err := h.store.Delete(r.Context(), kind, id); err != nil {
			handleFailure(w, err)
			return
		}

		httputil.RespondSuccess(w, http.StatusOK, "", nil)
	}
}
