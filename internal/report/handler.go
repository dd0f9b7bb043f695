package report

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/httputil"
	"github.com/edwinbf09/daily-activities/internal/logging"
)

// Lister supplies the snapshot a report is built from.
type Lister interface {
	List(ctx context.Context) ([]activity.Activity, error)
}

// Handler serves reports as PDF downloads
type Handler struct {
	lister    Lister
	generator *Generator
}

func NewHandler(lister Lister, generator *Generator) *Handler {
	return &Handler{lister: lister, generator: generator}
}

// Routes mounts the report endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Complete)
	r.Get("/{category}", h.Category)
}

// Complete renders the report over all categories
// @Summary      Complete report
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200 {file} binary
// @Failure      404 {object} httputil.ErrorResponse "No activities"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /reports [get]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	list, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	doc, err := h.generator.Complete(list)
	h.respond(w, r, doc, err)
}

// Category renders the report of one category
// @Summary      Category report
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        category path string true "Category id"
// @Success      200 {file} binary
// @Failure      400 {object} httputil.ErrorResponse "Unknown category"
// @Failure      404 {object} httputil.ErrorResponse "No activities in category"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /reports/{category} [get]
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	category, err := activity.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidCategory, http.StatusBadRequest)
		return
	}

	list, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	doc, err := h.generator.Category(category, list)
	h.respond(w, r, doc, err)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) ([]activity.Activity, bool) {
	list, err := h.lister.List(r.Context())
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("report snapshot failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch activities", httputil.CodeInternalError, http.StatusInternalServerError)
		return nil, false
	}
	return list, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, doc *Document, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	if err != nil {
		if errors.Is(err, ErrNoData) {
			logger.Warn("report has no data")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNoData, http.StatusNotFound)
			return
		}
		logger.Error("report generation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to generate report", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		logger.Warn("failed to write report", "error", err)
		return
	}

	logger.Info("report generated", "filename", doc.Filename, "bytes", len(doc.Content))
}
