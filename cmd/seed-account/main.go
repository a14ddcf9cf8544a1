package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/observability"
	"github.com/spec-kit/schedulo/internal/persistence"
	"github.com/spec-kit/schedulo/internal/service"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// seed-account creates a single account directly in the store. It bootstraps the first
// admin, since registration over HTTP requires an admin token.
func main() {
	var (
		role       = flag.String("role", string(domain.RoleFaculty), "admin, hod or faculty")
		name       = flag.String("name", "Test Faculty", "display name")
		email      = flag.String("email", "test.faculty@schedulo.local", "login email")
		employeeID = flag.String("employee-id", "FAC001", "employee id used to log in")
		password   = flag.String("password", "password123", "initial password")
		department = flag.String("department", "Computer Science", "department")
		campus     = flag.String("campus", "Main", "campus")
		subjects   = flag.String("subjects", "Data Structures", "comma separated subjects (faculty only)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Store.Driver != "postgres" {
		log.Fatalf("seed-account requires STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	stores, err := persistence.NewPostgresStores(pg.PoolHandle())
	if err != nil {
		logger.Fatal("failed to build stores", zap.Error(err))
	}

	authService := service.NewAuthService(cfg.Auth, service.NewIdentityResolver(stores.CredentialStores()...), logger, nil)

	parsedRole, ok := domain.ParseRole(*role)
	if !ok {
		logger.Fatal("unknown role", zap.String("role", *role))
	}
	in := service.RegisterInput{
		Name:       *name,
		Email:      *email,
		Password:   *password,
		EmployeeID: *employeeID,
		Role:       parsedRole,
		Department: *department,
		Campus:     *campus,
	}
	if parsedRole == domain.RoleFaculty {
		in.Subjects = splitList(*subjects)
	}

	cred, err := authService.Register(ctx, in)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "CONFLICT" {
			logger.Info("account already exists", zap.String("employee_id", *employeeID), zap.String("reason", domainErr.Message))
			return
		}
		logger.Fatal("failed to seed account", zap.Error(err))
	}

	logger.Info("account seeded",
		zap.String("id", cred.ID),
		zap.String("role", string(cred.Role)),
		zap.String("employee_id", cred.EmployeeID),
		zap.String("email", cred.Email),
	)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
