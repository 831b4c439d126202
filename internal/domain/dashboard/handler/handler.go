// Package handler exposes the dashboard service over HTTP.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/returns-insights/internal/domain/analysis"
	"github.com/FACorreiaa/returns-insights/internal/domain/dashboard/service"
	"github.com/FACorreiaa/returns-insights/internal/domain/import/parser"
	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/report"
	"github.com/FACorreiaa/returns-insights/pkg/interceptors"
	"github.com/FACorreiaa/returns-insights/pkg/storage"
)

// DefaultMaxUploadBytes caps a multipart upload when none is configured.
const DefaultMaxUploadBytes = 50 << 20

// DashboardHandler serves the session API.
type DashboardHandler struct {
	svc            *service.Service
	store          storage.Storage
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewDashboardHandler creates the handler. store may be nil, which hides
// stored reports.
func NewDashboardHandler(svc *service.Service, store storage.Storage, logger *slog.Logger, maxUploadBytes int64) *DashboardHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &DashboardHandler{
		svc:            svc,
		store:          store,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to the API error codes.
func (h *DashboardHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr    *requestError
		missing   *ledger.MissingSheetError
		reduction analysis.InvalidReductionError
	)

	switch {
	case errors.As(err, &reqErr):
		interceptors.WriteError(w, http.StatusBadRequest, "invalid_request", reqErr.msg)
	case errors.As(err, &reduction):
		interceptors.WriteError(w, http.StatusBadRequest, "invalid_request", reduction.Error())
	case errors.Is(err, parser.ErrInvalidWorkbook):
		interceptors.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, storage.ErrNotFound):
		interceptors.WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &missing):
		interceptors.WriteError(w, http.StatusUnprocessableEntity, "missing_sheet", missing.Error())
	case errors.Is(err, ledger.ErrEmptyReferenceDate):
		interceptors.WriteError(w, http.StatusUnprocessableEntity, "empty_reference_date", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		interceptors.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.ErrSessionNotFound
	}
	return id, nil
}

// CreateSession accepts the sales and returns workbooks as multipart fields.
func (h *DashboardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			interceptors.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request",
				fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		h.writeError(w, r, invalidf("expected a multipart form with sales and returns files"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sales, err := formFile(r, "sales")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer sales.Close()

	returns, err := formFile(r, "returns")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer returns.Close()

	sess, err := h.svc.Load(r.Context(), sales, returns)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Summary())
}

func formFile(r *http.Request, field string) (io.ReadCloser, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, invalidf("missing file field %q", field)
	}
	return f, nil
}

// GetSession returns the session summary.
func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

// DeleteSession drops a session.
func (h *DashboardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err == nil {
		err = h.svc.Delete(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Metrics returns the snapshot of one window.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.svc.Metrics(r.Context(), id, q.Window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Windows returns snapshots side by side.
func (h *DashboardHandler) Windows(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseWindows(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snaps, err := h.svc.Windows(r.Context(), id, q.Days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// Quality returns the data quality report with its score.
func (h *DashboardHandler) Quality(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := h.svc.Quality(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"relatorio": q,
		"pontuacao": q.Score(),
	})
}

// Channels compares the return channels.
func (h *DashboardHandler) Channels(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.svc.Channels(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DeliveryMethods breaks the window down by delivery method.
func (h *DashboardHandler) DeliveryMethods(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.svc.DeliveryMethods(r.Context(), id, q.Window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Advertising compares advertised and organic sales.
func (h *DashboardHandler) Advertising(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.svc.Advertising(r.Context(), id, q.Window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SKURisk ranks SKUs by returns.
func (h *DashboardHandler) SKURisk(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseSKU(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.SKURisk(r.Context(), id, q.Window, q.Top)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reasons ranks return reasons.
func (h *DashboardHandler) Reasons(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.svc.Reasons(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Simulation projects the window with fewer returns.
func (h *DashboardHandler) Simulation(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseSimulation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sim, err := h.svc.Simulate(r.Context(), id, q.Window, q.Reduction)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// SearchReturns runs a free-text or order lookup over the session's returns.
func (h *DashboardHandler) SearchReturns(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseSearch(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hits, err := h.svc.SearchReturns(r.Context(), id, q.Q, q.Limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// ExportWorkbook downloads the dashboard workbook. The workbook is built in
// memory first so a failure can still be reported as JSON.
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportWorkbook(r.Context(), id, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeAttachment(w, report.XLSXContentType, report.DefaultFileName, buf.Bytes())
}

// ExportCSV downloads one ledger as CSV.
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := parseExport(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	kind, err := report.ParseKind(q.Kind)
	if err != nil {
		h.writeError(w, r, invalidf("%v", err))
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(r.Context(), id, kind, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", fmt.Sprintf("%s.csv", kind), buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// ListReports lists the stored scheduled reports.
func (h *DashboardHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, []*storage.FileInfo{})
		return
	}
	files, err := h.store.List(r.Context(), report.ScheduledFolder)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if files == nil {
		files = []*storage.FileInfo{}
	}
	writeJSON(w, http.StatusOK, files)
}

// DownloadReport streams one stored report.
func (h *DashboardHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || h.store == nil {
		h.writeError(w, r, storage.ErrNotFound)
		return
	}
	rc, info, err := h.store.Download(r.Context(), report.ScheduledFolder, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	w.Header().Set("Last-Modified", info.CreatedAt.UTC().Format(http.TimeFormat))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "report download interrupted", slog.Any("error", err))
	}
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}
