package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/storage"
	"tailscale.com/tsnet"
)

// Version is overridden with -ldflags "-X main.Version=...".
var Version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file")
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations, then exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("liftlog starting", "version", Version)

	if err := run(log, *configPath, *migrateOnly); err != nil {
		log.Error("liftlog exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, configPath string, migrateOnly bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn); err != nil {
		return err
	}
	log.Info("schema up to date")
	if migrateOnly {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := metrics.SetupPrometheus(
		pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": cfg.Database.Name}),
	)
	svc := logbook.New(db, logbook.Options{
		Records: progress.RecordCriteria{
			MaxSets:    cfg.Records.MaxSets,
			MaxRestSec: cfg.Records.MaxRestSec,
		},
		TopCount: cfg.Records.TopCount,
	}, log)
	handler := server.New(svc, cfg.Auth.APIKey, metrics.NewManager("liftlog", "api", reg), reg, log)

	ln, closer, err := listen(cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	httpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpSrv.Serve(ln) }()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("signal received, draining connections", "grace", shutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// listen opens the tailnet listener when tailscale is enabled, otherwise a
// plain TCP listener on server.host:server.port. The returned closer is the
// tsnet node, or the plain listener itself.
func listen(cfg *config.Config, log *slog.Logger) (net.Listener, io.Closer, error) {
	if !cfg.Tailscale.Enabled {
		addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		log.Info("listening", "addr", ln.Addr().String(), "tailscale", false)
		return ln, ln, nil
	}

	node := &tsnet.Server{
		Hostname: cfg.Tailscale.Hostname,
		Dir:      cfg.Tailscale.StateDir,
		Logf:     func(format string, args ...any) { log.Debug(fmt.Sprintf(format, args...)) },
	}
	if err := node.Start(); err != nil {
		return nil, nil, fmt.Errorf("starting tsnet node: %w", err)
	}
	ln, err := node.Listen("tcp", ":80")
	if err != nil {
		node.Close()
		return nil, nil, fmt.Errorf("tsnet listen: %w", err)
	}
	log.Info("listening", "hostname", cfg.Tailscale.Hostname, "tailscale", true)
	return ln, node, nil
}
