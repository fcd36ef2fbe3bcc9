package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/matt-cal/main-st/internal/api/gateway"
	"github.com/matt-cal/main-st/internal/cache"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/pkg/config"
	"github.com/matt-cal/main-st/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "help" {
		printUsage()
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.MustNewLogger(cfg.Log)
	defer logger.Sync()

	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			handleMigrate(cfg, logger)
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	// Initialize database
	conn, dialect, err := db.OpenDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(conn, dialect, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	var opts []gateway.Option
	if cfg.Redis.Addr != "" {
		storage, err := cache.ConnectRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer storage.Close()
		opts = append(opts, gateway.WithLimiterStorage(storage))
		logger.Info("Rate limiter uses Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize API Gateway
	gw := gateway.NewAPIGateway(*cfg, logger, docstore.NewStore(conn, dialect), opts...)

	// Start server in background
	go func() {
		if err := gw.Start(); err != nil {
			logger.Fatal("Gateway failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := gw.Shutdown(ctx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func handleMigrate(cfg *config.Config, logger *zap.Logger) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: server migrate [up|down|status|version]")
		os.Exit(1)
	}

	conn, dialect, err := db.OpenDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer conn.Close()

	if err := runMigrate(os.Args[2], conn, dialect, logger); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
}

func runMigrate(command string, conn *sql.DB, dialect db.Dialect, logger *zap.Logger) error {
	switch command {
	case "up":
		return db.RunMigrations(conn, dialect, logger)
	case "down":
		return db.Rollback(conn, dialect, logger)
	case "status":
		return db.Status(conn, dialect, logger)
	case "version":
		version, err := db.Version(conn, dialect)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d\n", version)
		return nil
	}
	return fmt.Errorf("unknown migration command: %s", command)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  server                  - Start the API server")
	fmt.Println("  server migrate up       - Run pending migrations")
	fmt.Println("  server migrate down     - Rollback the last migration")
	fmt.Println("  server migrate status   - Show migration status")
	fmt.Println("  server migrate version  - Show the current schema version")
	fmt.Println("  server help             - Show this help message")
}
