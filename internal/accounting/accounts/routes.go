package accounts

import "github.com/go-chi/chi/v5"

// MountYearRoutes registers routes under /fiscal-years/{fy}/accounts.
func (h *Handler) MountYearRoutes(r chi.Router) {
	r.Get("/", h.tree)
	r.Post("/", h.create)
	r.Post("/seed", h.seed)
}

// MountRoutes registers routes under /accounts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}
