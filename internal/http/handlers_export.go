package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"kitabu/internal/amqp"
	"kitabu/internal/analytics"
	"kitabu/internal/export"
	"kitabu/internal/log"
)

// handleExportDownload streams the filtered rows in the requested format.
// The body is rendered into memory first so a failure still yields a clean
// error response.
func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind, err := parseWindow(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	now := s.clock.Now()
	rows := export.Rows(analytics.Filter(s.store.List(), kind, now))
	var buf bytes.Buffer
	opts := export.Options{
		Title:       fmt.Sprintf("%s (%s)", export.SheetName, kind),
		Currency:    s.currency,
		GeneratedAt: now,
	}
	if err := export.Write(&buf, format, rows, opts); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	filename := export.Filename("expenses_"+kind.String(), format, now)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Export downloaded",
		log.FieldOperation, log.OpExport,
		log.FieldWindow, kind.String(),
		log.FieldFormat, string(format),
		log.FieldCount, len(rows))

	NewJSONResponse().
		Header("Content-Type", format.ContentType()).
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename)).
		Raw(buf.Bytes()).
		Write(w)
}

type exportJobView struct {
	ID      string   `json:"id"`
	Window  string   `json:"window"`
	Formats []string `json:"formats,omitempty"`
	Status  string   `json:"status"`
}

// handleExportSheets queues a sheet export when a publisher is configured and
// otherwise runs it inline.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind, err := parseWindow(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	formats, err := parseFormats(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	logger := log.FromContext(r.Context())

	switch {
	case s.publisher != nil:
		msg := amqp.NewExportRequestMessage(kind, formats, true)
		if err := s.publisher.PublishExportRequest(r.Context(), msg); err != nil {
			logger.ErrorContext(r.Context(), "Failed to queue export",
				log.NewFields().WithOperation(log.OpExport).WithError(err).
					WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
			ServiceUnavailableError("export queue unavailable").Write(w)
			return
		}
		logger.InfoContext(r.Context(), "Export queued",
			"job_id", msg.ID, log.FieldWindow, kind.String())
		NewJSONResponse().Status(http.StatusAccepted).JSON(exportJobView{
			ID:      msg.ID,
			Window:  kind.String(),
			Formats: msg.Formats,
			Status:  "queued",
		}).Write(w)

	case s.exporter != nil:
		res, err := s.exporter.Export(r.Context(), kind, formats, true)
		if err != nil {
			logger.ErrorContext(r.Context(), "Inline export failed",
				log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
			ErrorResponse(http.StatusBadGateway, "export failed: "+strings.TrimSpace(err.Error())).Write(w)
			return
		}
		NewJSONResponse().JSON(res).Write(w)

	default:
		ServiceUnavailableError("sheet export is not configured").Write(w)
	}
}
