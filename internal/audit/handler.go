package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the timeline and its CSV export. Exports are rate
// limited per actor.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(exportRateLimit, exportRateWindow, httprate.WithKeyFuncs(exportKey)))
		gr.Get("/export.csv", h.export)
	})
}

func exportKey(r *http.Request) (string, error) {
	if actor := shared.ActorFromContext(r.Context()); actor > 0 {
		return "actor:" + strconv.FormatInt(actor, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Timeline(r.Context(), f)
	if err != nil {
		httpx.Fail(w, h.logger, "audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.Export(r.Context(), f)
	if err != nil {
		httpx.Fail(w, h.logger, "audit export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	if err := WriteCSV(w, entries); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	var (
		f   TimelineFilters
		err error
	)
	if f.From, err = httpx.QueryDate(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = httpx.QueryDate(r, "to"); err != nil {
		return f, err
	}
	if f.ActorID, err = httpx.QueryInt64(r, "actor"); err != nil {
		return f, err
	}
	page, err := httpx.QueryInt64(r, "page")
	if err != nil {
		return f, err
	}
	size, err := httpx.QueryInt64(r, "page_size")
	if err != nil {
		return f, err
	}
	q := r.URL.Query()
	f.Entity = q.Get("entity")
	f.EntityID = q.Get("entity_id")
	f.Action = q.Get("action")
	f.Page = int(page)
	f.PageSize = int(size)
	return f, nil
}
