package handler

import (
	"log/slog"
	"net/http"

	"marginalia/internal/httputil"
	"marginalia/internal/service/reader"
	"marginalia/internal/service/registry"
)

// SelectedTextHandler handles HTTP requests for text selection and the
// selected-text entities behind it. Responses use the success envelope
// the reader frontend consumes.
type SelectedTextHandler struct {
	documents *reader.Service
	texts     *registry.Registry
	logger    *slog.Logger
}

// NewSelectedTextHandler creates a new selected text handler.
func NewSelectedTextHandler(documents *reader.Service, texts *registry.Registry, logger *slog.Logger) *SelectedTextHandler {
	return &SelectedTextHandler{
		documents: documents,
		texts:     texts,
		logger:    logger,
	}
}

type selectTextRequest struct {
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"`
	TextType      string `json:"text_type"`
}

// Select claims a span of a document's text. The selected substring is
// taken from the document itself, so the canonical entity always matches
// what the text actually says at that span.
func (h *SelectedTextHandler) Select(w http.ResponseWriter, r *http.Request) {
	documentID := pathID(w, r, "id")
	if documentID == "" {
		return
	}

	var req selectTextRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondFailure(w, http.StatusBadRequest, []string{err.Error()})
		return
	}

	result, err := h.documents.SelectText(r.Context(), documentID, req.StartPosition, req.EndPosition, req.TextType)
	if err != nil {
		handleFailure(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, httputil.Envelope{
		"success":       true,
		"selected_text": result.SelectedText,
		"location":      result.Location,
	})
}

// Get returns the full aggregate of one selected text: the entity, its
// annotations of every kind, its locations across documents and the
// deduplicated synonym list.
func (h *SelectedTextHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	aggregate, err := h.texts.Aggregate(r.Context(), id)
	if err != nil {
		handleFailure(w, err)
		return
	}
	allSynonyms, err := h.texts.AllSynonymsOf(r.Context(), id)
	if err != nil {
		handleFailure(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, httputil.Envelope{
		"success":       true,
		"selected_text": aggregate,
		"all_synonyms":  allSynonyms,
	})
}

type updateSelectedTextRequest struct {
	TextType string `json:"text_type"`
}

// Update changes the entity's text type classifier.
func (h *SelectedTextHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	var req updateSelectedTextRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondFailure(w, http.StatusBadRequest, []string{err.Error()})
		return
	}

	st, err := h.texts.UpdateTextType(r.Context(), id, req.TextType)
	if err != nil {
		handleFailure(w, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "selected_text", st)
}

// Delete removes the entity with its annotations and locations.
func (h *SelectedTextHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	if err := h.texts.Delete(r.Context(), id); err != nil {
		handleFailure(w, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", nil)
}
