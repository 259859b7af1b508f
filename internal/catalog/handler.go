// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes wires the catalog endpoints. The fixed paths must be registered
// before the {bookID} wildcard.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleHealth)
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/search", h.handleSearch)
		r.Get("/categories", h.handleCategories)
		r.Get("/authors", h.handleAuthors)
		r.Get("/recommendations", h.handleRecommendations)
		r.Get("/by-isbn/{isbn}", h.handleGetByISBN)
		r.Get("/{bookID}", h.handleGet)
		r.Put("/{bookID}", h.handleUpdate)
		r.Put("/{bookID}/image", h.handleUpdateCover)
		r.Delete("/{bookID}", h.handleDelete)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Books API v1.0.0",
		"status":    "running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r, 1, 20)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filters := Filters{
		Category: r.URL.Query().Get("category"),
		Author:   r.URL.Query().Get("author"),
	}

	result, err := h.service.ListBooks(r.Context(), tenantID(r), filters, r.URL.Query().Get("sort"), page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateBookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, ErrInvalidFilter)
		return
	}

	book, err := h.service.CreateBook(r.Context(), tenantID(r), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "book created",
		"book_id": book.ID,
		"book":    book,
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r, 1, 20)
	if err != nil {
		h.writeError(w, err)
		return
	}
	fuzzy := r.URL.Query().Get("fuzzy") != "false"

	result, err := h.service.SearchBooks(r.Context(), tenantID(r), r.URL.Query().Get("q"), fuzzy, page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context(), tenantID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func (h *Handler) handleAuthors(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r, 1, 50)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.ListAuthors(r.Context(), tenantID(r), page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.GetRecommendations(r.Context(), tenantID(r), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetByISBN(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBookByISBN(r.Context(), tenantID(r), chi.URLParam(r, "isbn"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	book, err := h.service.GetBook(r.Context(), tenantID(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var in UpdateBookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, ErrInvalidFilter)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), tenantID(r), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "book updated",
		"book":    book,
	})
}

func (h *Handler) handleUpdateCover(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		CoverImageURL string `json:"cover_image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CoverImageURL == "" {
		h.writeError(w, ErrInvalidFilter)
		return
	}

	book, err := h.service.UpdateBookCover(r.Context(), tenantID(r), id, req.CoverImageURL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":         "book cover updated",
		"book_id":         book.ID,
		"cover_image_url": book.CoverImageURL,
		"book":            book,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.service.DeleteBook(r.Context(), tenantID(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

// writeError maps the error taxonomy to status codes. Unexpected store
// failures are logged with detail and surfaced generically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingTenant), errors.Is(err, ErrMissingQuery), errors.Is(err, ErrInvalidFilter):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": ErrNotFound.Error()})
	case errors.Is(err, ErrDuplicateISBN):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": ErrDuplicateISBN.Error()})
	default:
		h.logger.Error("internal error", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func tenantID(r *http.Request) string {
	return r.URL.Query().Get("tenant_id")
}

func bookID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		return uuid.Nil, ErrInvalidFilter
	}
	return id, nil
}

func pageParams(r *http.Request, defaultPage, defaultLimit int) (int, int, error) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidFilter
	}
	return v, nil
}
