package cheques

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
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/status", h.setStatus)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Type:   Type(r.URL.Query().Get("type")),
		Status: Status(r.URL.Query().Get("status")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown type filter")
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status filter")
		return
	}
	due, err := httpx.QueryDate(r, "due_before")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.DueBefore = due
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, h.logger, "list cheques", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get cheque", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) decode(r *http.Request) (Input, error) {
	var req chequeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return Input{}, err
	}
	if err := httpx.Validate(req); err != nil {
		return Input{}, err
	}
	return req.toInput(), nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create cheque", err)
		return
	}
	httpx.Created(w, c.ID)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Update(r.Context(), id, in); err != nil {
		httpx.Fail(w, h.logger, "update cheque", err)
		return
	}
	httpx.Updated(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete cheque", err)
		return
	}
	httpx.Deleted(w)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.SetStatus(r.Context(), id, Status(req.Status))
	if err != nil {
		httpx.Fail(w, h.logger, "set cheque status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
