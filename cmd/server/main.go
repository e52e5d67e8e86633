package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/config"
	"github.com/LuisEmilioVP/NexuViaticos/internal/export"
	httpiface "github.com/LuisEmilioVP/NexuViaticos/internal/interfaces/http"
	"github.com/LuisEmilioVP/NexuViaticos/internal/ledger"
	"github.com/LuisEmilioVP/NexuViaticos/internal/reference"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
	"github.com/LuisEmilioVP/NexuViaticos/internal/submission"
	"github.com/LuisEmilioVP/NexuViaticos/pkg/database"
	"github.com/LuisEmilioVP/NexuViaticos/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting NexuViaticos",
		zap.Int("port", cfg.Server.Port),
		zap.String("db", cfg.Database.Path))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB, logger)
	clientRepo := repository.NewClientRepository(db.DB, logger)
	branchRepo := repository.NewBranchRepository(db.DB, logger)
	expenseTypeRepo := repository.NewExpenseTypeRepository(db.DB, logger)
	allowanceRepo := repository.NewAllowanceRepository(db.DB, logger)
	movementRepo := repository.NewMovementRepository(db.DB, logger)
	submissionRepo := repository.NewSubmissionRepository(db.DB, logger)

	// Initialize core services
	authService := auth.NewService(userRepo, auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	}, logger)

	refService := reference.NewService(userRepo, clientRepo, branchRepo, expenseTypeRepo, logger)

	calculator := ledger.NewCalculator(db, allowanceRepo, movementRepo, userRepo, ledger.AlertPolicy{
		CriticalDays: cfg.Ledger.CriticalDays,
		WarningDays:  cfg.Ledger.WarningDays,
	}, logger)

	coordinator := submission.NewCoordinator(db, submissionRepo, movementRepo, allowanceRepo, refService, logger)

	exporter := export.NewExporter(logger)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, authService, calculator, coordinator, refService, exporter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
