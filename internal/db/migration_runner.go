package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/matt-cal/main-st/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// gooseLogger routes goose output into zap.
type gooseLogger struct {
	logger *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

func prepareGoose(dialect Dialect, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: logger.Named("migrations").Sugar()})

	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// RunMigrations applies all pending migrations embedded in the binary.
func RunMigrations(conn *sql.DB, dialect Dialect, logger *zap.Logger) error {
	if err := prepareGoose(dialect, logger); err != nil {
		return err
	}
	if err := goose.Up(conn, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Rollback rolls back the latest migration.
func Rollback(conn *sql.DB, dialect Dialect, logger *zap.Logger) error {
	if err := prepareGoose(dialect, logger); err != nil {
		return err
	}
	if err := goose.Down(conn, "."); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// Status logs the applied/pending state of every migration.
func Status(conn *sql.DB, dialect Dialect, logger *zap.Logger) error {
	if err := prepareGoose(dialect, logger); err != nil {
		return err
	}
	return goose.Status(conn, ".")
}

// Version returns the current schema version.
func Version(conn *sql.DB, dialect Dialect) (int64, error) {
	if err := prepareGoose(dialect, nil); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(conn)
}
