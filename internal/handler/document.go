package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"marginalia/internal/httputil"
	"marginalia/internal/service/reader"
	"marginalia/internal/service/registry"
)

// DocumentHandler handles HTTP requests for document operations.
type DocumentHandler struct {
	documents *reader.Service
	texts     *registry.Registry
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(documents *reader.Service, texts *registry.Registry, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		texts:     texts,
		logger:    logger,
	}
}

// HealthCheck reports service liveness.
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Create registers a new document and starts extraction in the background.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input reader.CreateDocumentInput
	if err := httputil.ParseJSON(w, r, &input); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.documents.CreateDocument(r.Context(), input)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// List returns all documents, newest first.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.ListDocuments(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// Get returns one document with its outline tree and span locations.
// When ?selected_text_id= is present the response also carries the full
// aggregate of that entity, which is what the reader pane shows when a
// highlighted span is clicked.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	view, err := h.documents.GetDocumentView(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	if selectedTextID := r.URL.Query().Get("selected_text_id"); selectedTextID != "" {
		aggregate, err := h.texts.Aggregate(r.Context(), selectedTextID)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"document":      view.Document,
			"outline":       view.Outline,
			"locations":     view.Locations,
			"selected_text": aggregate,
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// Outline returns the document's outline tree alone.
func (h *DocumentHandler) Outline(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	view, err := h.documents.GetDocumentView(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view.Outline)
}

// Page returns the extracted text of one page.
func (h *DocumentHandler) Page(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid page number")
		return
	}

	text, err := h.documents.PageText(r.Context(), id, page)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"page": page,
		"text": text,
	})
}

// Update patches the document's title or reading position.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	var input reader.UpdateDocumentInput
	if err := httputil.ParseJSON(w, r, &input); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.documents.UpdateDocument(r.Context(), id, input)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Delete removes a document together with its outline and locations.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r, "id")
	if id == "" {
		return
	}

	if err := h.documents.DeleteDocument(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
