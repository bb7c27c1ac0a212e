package vouchers

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
	r.Post("/{id}/post", h.post)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	fy, err := httpx.QueryInt64(r, "fiscal_year_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cash, err := httpx.QueryInt64(r, "cash_account_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := ListFilter{
		FiscalYearID:  fy,
		CashAccountID: cash,
		Status:        Status(r.URL.Query().Get("status")),
		Type:          Type(r.URL.Query().Get("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown type filter")
		return
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, h.logger, "list vouchers", err)
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
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) decode(r *http.Request) (Input, error) {
	var req voucherRequest
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
	v, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create voucher", err)
		return
	}
	httpx.Created(w, v.ID)
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
		httpx.Fail(w, h.logger, "update voucher", err)
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
		httpx.Fail(w, h.logger, "delete voucher", err)
		return
	}
	httpx.Deleted(w)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Post(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "post voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}
