package server

import (
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/ingest/csvlog"
	"github.com/claude/liftlog/internal/logbook"
)

// maxImportBody caps CSV uploads.
const maxImportBody = 32 << 20

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	result, err := s.svc.Import(r.Context(), "api", body)
	if err != nil {
		s.metrics.CounterImports.WithLabelValues("error").Inc()
		s.log.Error("csv import error", "error", err)
		badRequest(w, err.Error())
		return
	}
	s.metrics.CounterImports.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := logbook.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := "liftlog-" + s.svc.Now().Format(time.DateOnly)
	if format != csvlog.FormatNative {
		name += "-" + string(format)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	if err := s.svc.Export(r.Context(), w, format); err != nil {
		// The body may be partly written by now, so the status cannot change.
		s.log.Error("export failed", "format", format, "error", err)
	}
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	logs, err := s.svc.ImportLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
