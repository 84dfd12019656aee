package logbook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/csvlog"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// maxLoggedSkips caps how many skipped-row messages go into an import log.
const maxLoggedSkips = 20

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// Import ingests a CSV log and records the outcome in the import log.
// source names where the file came from (e.g. "api" or a file path).
func (s *Service) Import(ctx context.Context, source string, r io.Reader) (*ingest.Result, error) {
	start := time.Now()
	result, err := s.csv.Ingest(ctx, r)
	s.recordImport(ctx, source, result, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.log.Info("csv imported", "source", source, "format", result.Format,
		"inserted", result.SessionsInserted, "skipped", result.RowsSkipped)
	return result, nil
}

// recordImport writes one import_logs row. Failures are logged, never returned.
func (s *Service) recordImport(ctx context.Context, source string, result *ingest.Result, importErr error, took time.Duration) {
	entry := storage.ImportLog{Source: source, Status: storage.ImportSuccess}
	if importErr != nil {
		entry.Status = storage.ImportError
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if result != nil {
		entry.RowsReceived = result.RowsReceived
		entry.SessionsInserted = result.SessionsInserted
		entry.ExercisesCreated = result.ExercisesCreated
		entry.LoadMismatches = result.LoadMismatches

		meta := map[string]any{"format": result.Format}
		if len(result.SkippedRows) > 0 {
			meta["skipped_rows"] = result.SkippedRows[:min(len(result.SkippedRows), maxLoggedSkips)]
		}
		if raw, err := json.Marshal(meta); err == nil {
			msg := json.RawMessage(raw)
			entry.Metadata = &msg
		}
	}
	ms := int(took.Milliseconds())
	entry.DurationMs = &ms

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.store.InsertImportLog(logCtx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// ImportLogs returns the most recent import log entries.
func (s *Service) ImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error) {
	return s.store.QueryImportLogs(ctx, limit)
}

// Export writes every session as CSV, oldest first.
func (s *Service) Export(ctx context.Context, w io.Writer, format csvlog.Format) error {
	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.ExerciseRow, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}

	sessions, err := s.store.QuerySessions(ctx, storage.SessionFilter{})
	if err != nil {
		return err
	}
	slices.Reverse(sessions)

	rows := make([]csvlog.ExportRow, 0, len(sessions))
	for _, row := range sessions {
		rows = append(rows, csvlog.ExportRow{Exercise: byID[row.ExerciseID], Session: row})
	}

	if format == csvlog.FormatLegacy {
		return csvlog.WriteLegacy(w, rows, s.loc)
	}
	return csvlog.Write(w, rows)
}

// ParseExportFormat validates an export format name. Empty means native.
func ParseExportFormat(format string) (csvlog.Format, error) {
	switch f := csvlog.Format(format); f {
	case "":
		return csvlog.FormatNative, nil
	case csvlog.FormatNative, csvlog.FormatLegacy:
		return f, nil
	default:
		return "", invalid("format", "unknown export format %q", format)
	}
}
