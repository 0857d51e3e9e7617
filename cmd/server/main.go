package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/portfolio-ledger/internal/api"
	"github.com/ndewijer/portfolio-ledger/internal/config"
	"github.com/ndewijer/portfolio-ledger/internal/database"
	"github.com/ndewijer/portfolio-ledger/internal/logging"
	"github.com/ndewijer/portfolio-ledger/internal/repository"
	"github.com/ndewijer/portfolio-ledger/internal/scheduler"
	"github.com/ndewijer/portfolio-ledger/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server exited")
}

// stores bundles the persistence collaborators of the selected backend.
type stores struct {
	db     *sql.DB
	ledger service.LedgerStore
	keys   interface {
		service.IdempotencyStore
		scheduler.KeyPurger
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.Database.Backend == config.BackendMemory {
		logger.Warn().Msg("using in-memory persistence; data is lost on restart")
		return &stores{
			ledger: repository.NewMemoryLedgerRepository(),
			keys:   repository.NewMemoryIdempotencyRepository(cfg.Idempotency.TTL),
		}, nil
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", cfg.Database.Path).
		Int("migrations_applied", applied).
		Msg("connected to database")

	return &stores{
		db:     db,
		ledger: repository.NewLedgerRepository(db),
		keys:   repository.NewIdempotencyRepository(db, cfg.Idempotency.TTL),
	}, nil
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	// Create services
	systemService := service.NewSystemService(st.db)
	ledgerService := service.NewLedgerService(st.ledger, st.keys, logger)

	sched := scheduler.New(logger)
	if err := sched.AddIdempotencyPurge(cfg.Idempotency.PurgeSchedule, st.keys); err != nil {
		return err
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(systemService, ledgerService, cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	sched.Start()

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sched.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
