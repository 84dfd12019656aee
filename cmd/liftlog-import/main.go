package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/importer"
	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/storage"
)

type options struct {
	configPath string
	dir        string
	dryRun     bool
	force      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "YAML config file (unused with -dry-run)")
	flag.StringVar(&opts.dir, "path", "", "directory of CSV exports (required)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "parse and count without writing to the database")
	flag.BoolVar(&opts.force, "force", false, "ignore the import state and re-read every file")
	flag.Parse()

	if opts.dir == "" {
		fmt.Fprintln(os.Stderr, "usage: liftlog-import -path DIR [-config FILE] [-dry-run] [-force]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	stats, err := run(context.Background(), log, opts)
	if stats != nil {
		logStats(log, stats)
	}
	switch {
	case err != nil:
		log.Error("import aborted", "error", err)
		os.Exit(1)
	case stats.FilesErrored > 0:
		log.Warn("import finished with failed files", "failed", stats.FilesErrored)
		os.Exit(1)
	}
	log.Info("import complete")
}

func run(ctx context.Context, log *slog.Logger, opts options) (*importer.Stats, error) {
	if info, err := os.Stat(opts.dir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, errors.New(opts.dir + " is not a directory")
	}

	if opts.dryRun {
		log.Info("dry run: files are parsed, nothing is written")
		return importer.New(nil, nil, time.Local, log, true).Import(ctx, opts.dir)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn); err != nil {
		return nil, err
	}
	db, err := storage.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var state *importer.StateDB
	if !opts.force {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		state, err = importer.OpenStateDB(filepath.Join(home, ".liftlog-import"))
		if err != nil {
			return nil, err
		}
		defer state.Close()
	}

	svc := logbook.New(db, logbook.Options{}, log)
	return importer.New(svc, state, time.Local, log, false).Import(ctx, opts.dir)
}

func logStats(log *slog.Logger, s *importer.Stats) {
	log.Info("import summary",
		"files", s.FilesProcessed,
		"unchanged", s.FilesSkipped,
		"failed", s.FilesErrored,
		"rows", s.RowsReceived,
		"rows_skipped", s.RowsSkipped,
		"sessions_new", s.SessionsInserted,
		"sessions_existing", s.SessionsExisting,
		"exercises_created", s.ExercisesCreated,
		"load_mismatches", s.LoadMismatches,
	)
}
