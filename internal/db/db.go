package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/jmorenas/stageinv/internal/config"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Open connects to the MariaDB/MySQL server described by the persisted config
// and verifies the connection with a ping. Callers own the handle and must
// close it before the request returns; connections are never shared across
// requests.
func Open(cfg *config.Config) (*sql.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.DBUser
	dsn.Passwd = cfg.DBPass
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort)
	dsn.DBName = cfg.DBName
	dsn.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (also failed to close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the schema on a MySQL connection. Re-running against an
// up-to-date database is a no-op, which is what lets setup be resubmitted
// safely.
func Migrate(db *sql.DB) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to init mysql migrate driver: %w", err)
	}
	return runMigrations("migrations/mysql", driver)
}

// MigrateSQLite applies the sqlite flavor of the schema. Used by
// OpenForTesting and by tests that manage their own connection.
func MigrateSQLite(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to init sqlite migrate driver: %w", err)
	}
	return runMigrations("migrations/sqlite", driver)
}

func runMigrations(dir string, driver database.Driver) error {
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "stageinv", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MySQLConnector is the production database connector handed to the web
// layer: a fresh connection per request, closed by the returned cleanup.
type MySQLConnector struct{}

func (MySQLConnector) Connect(cfg *config.Config) (*sql.DB, func(), error) {
	d, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := d.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
	return d, cleanup, nil
}

func (MySQLConnector) Migrate(d *sql.DB) error {
	return Migrate(d)
}

var testDBSeq atomic.Int64

// OpenForTesting returns an in-memory sqlite database with the schema
// applied. Each call gets its own database; cache=shared keeps it alive
// across the connections in the pool, and the foreign_keys pragma is set per
// connection so cascades behave as they do on MySQL.
func OpenForTesting() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:stageinv_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", testDBSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}
	if err := MigrateSQLite(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("%w (also failed to close db: %v)", err, cerr)
		}
		return nil, err
	}
	return db, nil
}
