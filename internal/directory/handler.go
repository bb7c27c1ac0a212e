package directory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/persons/{id}", h.person)
	r.Get("/persons/{id}/references", h.PersonReferences)
	r.Get("/products/{id}", h.product)
}

func (h *Handler) person(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Person(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get person", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Product(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type referencesResponse struct {
	Referenced bool        `json:"referenced"`
	Usage      PersonUsage `json:"usage"`
}

func (h *Handler) PersonReferences(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	referenced, usage, err := h.service.PersonReferenced(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "person references", err)
		return
	}
	httpx.JSON(w, http.StatusOK, referencesResponse{Referenced: referenced, Usage: usage})
}
