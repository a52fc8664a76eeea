package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/keylet/waitlist-api/config"
	"github.com/keylet/waitlist-api/domain"
	"github.com/keylet/waitlist-api/internal/log"
	"github.com/keylet/waitlist-api/pkg/migrations"
	"github.com/keylet/waitlist-api/pkg/utils"
)

type startupFlags struct {
	autoMigrate   bool
	sqlMigrations bool
}

// parseStartupFlags reads the migration switches from the argument list.
// --auto-migrate (-m) runs the dev-only gorm auto-migration; --migrate
// applies the versioned SQL migrations before the server starts serving.
func parseStartupFlags(args []string) startupFlags {
	var flags startupFlags

	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "--auto-migrate", "-m":
			flags.autoMigrate = true
		case "--migrate":
			flags.sqlMigrations = true
		}
	}

	return flags
}

func runSQLMigrations(logger *log.Logger, appConfig *config.ApplicationConfig) error {
	sqlDB, err := appConfig.DB.DB()
	if err != nil {
		return err
	}

	dir := utils.GetEnvTrimmed("MIGRATIONS_DIR")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return migrations.Up(ctx, sqlDB, migrations.Config{
		Dir:    dir,
		Logger: logger,
	})
}

func main() {
	logger := log.NewLoggerWithJSONOutput()

	logger.Info("Waitlist API server initializing")

	flags := parseStartupFlags(os.Args[1:])

	appConfig, err := config.LoadApplicationConfiguration(logger, flags.autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}

	if flags.sqlMigrations {
		if err := runSQLMigrations(logger, appConfig); err != nil {
			logger.Error("Failed to apply SQL migrations", "error", err.Error())
			appConfig.Cleanup()
			os.Exit(1)
		}
	}

	domain.SetupCoreDomain(appConfig)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...")
		if err := appConfig.RouterService.RunHTTPServer(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("Server error", "error", err)
		appConfig.Cleanup()
		os.Exit(1)
	case <-quit:
		logger.Info("Shutdown signal received, shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		} else {
			logger.Info("HTTP server shut down gracefully")
		}
		appConfig.Cleanup()

		logger.Info("Graceful shutdown completed")
	}
}
