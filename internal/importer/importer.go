// Package importer loads a directory of CSV training logs into the database.
package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/csvlog"
)

// Ingester imports one CSV file and records it in the import log.
// *logbook.Service satisfies it.
type Ingester interface {
	Import(ctx context.Context, source string, r io.Reader) (*ingest.Result, error)
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	RowsReceived     int
	RowsSkipped      int
	SessionsInserted int64
	SessionsExisting int64
	ExercisesCreated int
	LoadMismatches   int
}

// Importer walks a directory for .csv files and ingests each one.
type Importer struct {
	ing    Ingester
	state  *StateDB
	loc    *time.Location
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer. state may be nil, in which case every file is
// imported. In dry-run mode files are only parsed and ing is never called.
func New(ing Ingester, state *StateDB, loc *time.Location, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ing: ing, state: state, loc: loc, log: log, dryRun: dryRun}
}

// Import processes every .csv file under dir in lexical order. A file that
// fails is counted and logged; the walk continues with the next one.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	files, err := findCSV(dir)
	if err != nil {
		return &imp.stats, err
	}
	imp.log.Info("found csv files", "dir", dir, "count", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		if err := imp.importFile(ctx, path, rel); err != nil {
			imp.log.Warn("import failed", "file", rel, "error", err)
			imp.stats.FilesErrored++
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	if imp.state != nil && !imp.dryRun {
		done, err := imp.state.IsImported(rel, info.Size(), hash)
		if err != nil {
			return err
		}
		if done {
			imp.log.Debug("skipping unchanged file", "file", rel)
			imp.stats.FilesSkipped++
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if imp.dryRun {
		parsed, err := csvlog.Parse(f, imp.loc)
		if err != nil {
			return err
		}
		imp.stats.FilesProcessed++
		imp.stats.RowsReceived += len(parsed.Records) + len(parsed.Skipped)
		imp.stats.RowsSkipped += len(parsed.Skipped)
		imp.log.Info("parsed file", "file", rel, "format", parsed.Format,
			"rows", len(parsed.Records), "skipped", len(parsed.Skipped))
		return nil
	}

	res, err := imp.ing.Import(ctx, rel, f)
	if err != nil {
		return err
	}
	imp.stats.FilesProcessed++
	imp.stats.RowsReceived += res.RowsReceived
	imp.stats.RowsSkipped += res.RowsSkipped
	imp.stats.SessionsInserted += res.SessionsInserted
	imp.stats.SessionsExisting += res.SessionsExisting
	imp.stats.ExercisesCreated += res.ExercisesCreated
	imp.stats.LoadMismatches += res.LoadMismatches

	if imp.state != nil {
		if err := imp.state.MarkImported(rel, info.Size(), hash, res.SessionsInserted); err != nil {
			return err
		}
	}
	return nil
}

// findCSV returns every regular .csv file under dir, sorted.
func findCSV(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
