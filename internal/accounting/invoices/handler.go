package invoices

import (
	"log/slog"
	"net/http"
	"time"

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
	r.Post("/{id}/confirm", h.confirm)
	r.Post("/{id}/return", h.markReturned)
	r.Post("/{id}/convert", h.convert)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.QueryInt64(r, "fiscal_year_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	person, err := httpx.QueryInt64(r, "person_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := ListFilter{
		FiscalYearID: fy,
		PersonID:     person,
		Type:         Type(r.URL.Query().Get("invoice_type")),
		Status:       Status(r.URL.Query().Get("status")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown invoice_type filter")
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status filter")
		return
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, h.logger, "list invoices", err)
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
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) decode(r *http.Request) (Input, error) {
	var req invoiceRequest
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
	inv, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create invoice", err)
		return
	}
	httpx.Created(w, inv.ID)
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
		httpx.Fail(w, h.logger, "update invoice", err)
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
		httpx.Fail(w, h.logger, "delete invoice", err)
		return
	}
	httpx.Deleted(w)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "confirm invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) markReturned(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var date *time.Time
	if r.ContentLength > 0 {
		var req returnRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := httpx.Validate(req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if req.Date != "" {
			d, _ := time.Parse(httpx.DateLayout, req.Date)
			date = &d
		}
	}
	inv, err := h.service.Return(r.Context(), id, date)
	if err != nil {
		httpx.Fail(w, h.logger, "return invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.ConvertProforma(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "convert proforma", err)
		return
	}
	httpx.Created(w, inv.ID)
}
