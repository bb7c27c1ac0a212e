package mappings

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

// MountRoutes expects the {fy} parameter from the parent route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/{key}", h.set)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.URLInt64(r, "fy")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), fy)
	if err != nil {
		httpx.Fail(w, h.logger, "list mappings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type setRequest struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.URLInt64(r, "fy")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Set(r.Context(), fy, chi.URLParam(r, "key"), req.AccountID); err != nil {
		httpx.Fail(w, h.logger, "set mapping", err)
		return
	}
	httpx.Updated(w)
}
