package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// MigrationManager applies the embedded schema migrations
type MigrationManager struct {
	db     *sql.DB
	logger logger.Logger
}

func NewMigrationManager(db *sql.DB, l logger.Logger) *MigrationManager {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{l})

	return &MigrationManager{
		db:     db,
		logger: l,
	}
}

// Up runs all pending migrations
func (m *MigrationManager) Up() error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Version returns the latest applied migration version
func (m *MigrationManager) Version() (int64, error) {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}

	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}

// gooseLogger forwards goose output to the application logger
type gooseLogger struct {
	l logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Debug(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Fatal(fmt.Sprintf(format, v...))
}
