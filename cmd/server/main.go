package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/billbookhq/billbook/internal/application/service"
	"github.com/billbookhq/billbook/internal/config"
	"github.com/billbookhq/billbook/internal/email"
	"github.com/billbookhq/billbook/internal/infrastructure/persistence/repository"
	"github.com/billbookhq/billbook/internal/infrastructure/storage"
	httpapi "github.com/billbookhq/billbook/internal/interfaces/http"
	"github.com/billbookhq/billbook/migrations"
	"github.com/billbookhq/billbook/pkg/database"
	"github.com/billbookhq/billbook/pkg/utils"
)

func main() {
	// Load .env if present, real environment wins
	gotenv.Load()

	// Load configuration
	cfg, err := config.Load(configPath())
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

	logger.Info("Starting Billbook",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

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
	if err := migrator.Run(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create the photo directory
	if err := os.MkdirAll(cfg.Storage.PhotoDir, 0755); err != nil {
		logger.Fatal("Failed to create photo directory", zap.Error(err))
	}

	// Initialize repositories and storage
	billRepo := repository.NewBillRepository(db.DB, logger)
	eventRepo := repository.NewEventRepository(db.DB, logger)
	photoStore := storage.NewLocalPhotoStorage(cfg.Storage.PhotoDir, cfg.Storage.PhotoBaseURL, logger)

	// Initialize application services
	svcLogger := serviceLogger{logger.Sugar()}
	auditLog := service.NewAuditLog(eventRepo, svcLogger)
	policy := service.NewApprovalPolicy()
	billService := service.NewBillService(billRepo, photoStore, policy, auditLog, svcLogger)
	ledgerService := service.NewLedgerService(billRepo, svcLogger)
	ledgerExporter := service.NewLedgerExporter(ledgerService, auditLog, svcLogger)
	reportService := service.NewReportService(billRepo, svcLogger)
	emailSender := email.NewSender(auditLog, logger)

	// Initialize HTTP server
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		PhotoDir:     cfg.Storage.PhotoDir,
	}, httpapi.Services{
		Bills:   billService,
		Ledger:  ledgerService,
		Export:  ledgerExporter,
		Reports: reportService,
		Audit:   auditLog,
		Email:   emailSender,
	}, svcLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

// serviceLogger adapts zap's sugared logger to the application layer's
// minimal logging interface
type serviceLogger struct {
	sugar *zap.SugaredLogger
}

func (l serviceLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l serviceLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
