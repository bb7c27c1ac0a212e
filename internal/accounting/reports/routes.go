package reports

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers report endpoints. Reports scan the ledger, so they
// get a tighter per-client limit than the rest of the API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(60, time.Minute))
		r.Get("/turnover", h.Turnover)
		r.Get("/trial-balance", h.TrialBalance)
		r.Get("/balance-sheet", h.BalanceSheet)
		r.Get("/profit-and-loss", h.ProfitAndLoss)
		r.Get("/statements", h.Statements)
	})
}
