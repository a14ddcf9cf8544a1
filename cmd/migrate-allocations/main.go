package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/observability"
	"github.com/spec-kit/schedulo/internal/persistence"
	"github.com/spec-kit/schedulo/internal/service"
)

// migrate-allocations rewrites allocations that still point at a roster upload so they
// point at the faculty account created from it.
func main() {
	failOnErrors := flag.Bool("strict", false, "exit non-zero when any allocation could not be migrated")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Store.Driver != "postgres" {
		log.Fatalf("migrate-allocations requires STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	stores, err := persistence.NewPostgresStores(pg.PoolHandle())
	if err != nil {
		logger.Fatal("failed to build stores", zap.Error(err))
	}

	migrator := service.NewAllocationMigrator(stores.Allocations, stores.Uploads, stores.Faculty, logger)
	summary, err := migrator.Migrate(ctx)
	if err != nil {
		logger.Fatal("allocation migration aborted", zap.Error(err))
	}

	for _, e := range summary.Errors {
		logger.Warn("allocation not migrated",
			zap.String("allocation_id", e.AllocationID),
			zap.String("faculty_id", e.FacultyID),
			zap.String("reason", e.Reason),
		)
	}
	if *failOnErrors && len(summary.Errors) > 0 {
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}
