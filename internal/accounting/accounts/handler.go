package accounts

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.URLInt64(r, "fy")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	roots, err := h.service.Tree(r.Context(), fy)
	if err != nil {
		httpx.Fail(w, h.logger, "account tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roots)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.URLInt64(r, "fy")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	acc, err := h.service.Create(r.Context(), req.toInput(fy))
	if err != nil {
		httpx.Fail(w, h.logger, "create account", err)
		return
	}
	httpx.Created(w, acc.ID)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.URLInt64(r, "fy")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	seeded, err := h.service.SeedDefaults(r.Context(), fy)
	if err != nil {
		httpx.Fail(w, h.logger, "seed accounts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"created": len(seeded)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	acc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
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
		httpx.Fail(w, h.logger, "update account", err)
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
		httpx.Fail(w, h.logger, "delete account", err)
		return
	}
	httpx.Deleted(w)
}
