package fiscalyears

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

// Handler exposes the fiscal year registry over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "list fiscal years", err)
		return
	}
	httpx.JSON(w, http.StatusOK, years)
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	fy, err := h.service.GetActive(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "get active fiscal year", err)
		return
	}
	httpx.JSON(w, http.StatusOK, fy)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	fy, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get fiscal year", err)
		return
	}
	httpx.JSON(w, http.StatusOK, fy)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	fy, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		httpx.Fail(w, h.logger, "create fiscal year", err)
		return
	}
	httpx.Created(w, fy.ID)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Update(r.Context(), id, req.toInput()); err != nil {
		httpx.Fail(w, h.logger, "update fiscal year", err)
		return
	}
	httpx.Updated(w)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetActive(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "activate fiscal year", err)
		return
	}
	httpx.Updated(w)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete fiscal year", err)
		return
	}
	httpx.Deleted(w)
}
