package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL server error number for unique key violations
const mysqlDuplicateEntry = 1062

// pgUniqueViolation is the Postgres SQLSTATE for unique key violations
const pgUniqueViolation = "23505"

type dialect struct {
	name              string
	migrateDialect    string
	returningID       bool
	isUniqueViolation func(error) bool
}

var (
	sqliteDialect = dialect{
		name:           "sqlite3",
		migrateDialect: "sqlite3",
		isUniqueViolation: func(err error) bool {
			var se sqlite3.Error
			return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
		},
	}
	mysqlDialect = dialect{
		name:           "mysql",
		migrateDialect: "mysql",
		isUniqueViolation: func(err error) bool {
			var me *mysql.MySQLError
			return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
		},
	}
	postgresDialect = dialect{
		name:           "pgx",
		migrateDialect: "postgres",
		returningID:    true,
		isUniqueViolation: func(err error) bool {
			var pe *pgconn.PgError
			return errors.As(err, &pe) && pe.Code == pgUniqueViolation
		},
	}
)

// NewSQLiteStore opens a SQLite record store, creating the parent directory if needed
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(db, sqliteDialect, logger)
}

// NewMySQLStore opens a MySQL record store
func NewMySQLStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true

	db, err := sqlx.Connect("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return newSQLStore(db, mysqlDialect, logger)
}

// NewPostgresStore opens a Postgres record store through the pgx driver
func NewPostgresStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return newSQLStore(db, postgresDialect, logger)
}
