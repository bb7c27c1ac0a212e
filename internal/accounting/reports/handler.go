package reports

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

func parseQuery(r *http.Request) (Query, error) {
	var (
		q   Query
		err error
	)
	if q.FiscalYearID, err = httpx.QueryInt64(r, "fiscal_year_id"); err != nil {
		return Query{}, err
	}
	if q.AccountID, err = httpx.QueryInt64(r, "account_id"); err != nil {
		return Query{}, err
	}
	if q.From, err = httpx.QueryDate(r, "date_from"); err != nil {
		return Query{}, err
	}
	if q.To, err = httpx.QueryDate(r, "date_to"); err != nil {
		return Query{}, err
	}
	if q.AsOf, err = httpx.QueryDate(r, "as_of"); err != nil {
		return Query{}, err
	}
	return q, nil
}

func (h *Handler) Turnover(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Turnover(r.Context(), q)
	if err != nil {
		httpx.Fail(w, h.logger, "account turnover", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.TrialBalance(r.Context(), q)
	if err != nil {
		httpx.Fail(w, h.logger, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), q)
	if err != nil {
		httpx.Fail(w, h.logger, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.ProfitAndLoss(r.Context(), q)
	if err != nil {
		httpx.Fail(w, h.logger, "profit and loss", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Statements(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Statements(r.Context(), q)
	if err != nil {
		httpx.Fail(w, h.logger, "financial statements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
