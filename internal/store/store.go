package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/quote"
	"github.com/maihuoche/Medoo/internal/querysql"
)

// Supported driver names.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Drivers lists the accepted driver names.
var Drivers = []string{DriverSQLite, DriverMySQL}

// ErrRollback can be returned from an Action callback to roll the
// transaction back without failing the Action.
var ErrRollback = errors.New("store: rollback requested")

// ErrNestedAction is returned when Action is called on a Store that is
// already bound to a transaction.
var ErrNestedAction = errors.New("store: action already in a transaction")

// Config describes a connection.
type Config struct {
	// Driver is "sqlite3" (default) or "mysql".
	Driver string

	// DSN is the driver-specific data source name. For sqlite3 this is a
	// file path or ":memory:".
	DSN string

	// Prefix is prepended to every table name.
	Prefix string

	// Quote selects the identifier quote style. Empty means backtick.
	Quote quote.Style
}

// querier is the subset of *sql.DB and *sql.Tx the store uses.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store executes compiled statements against one database.
type Store struct {
	db       *sql.DB
	tx       *sql.Tx
	q        querier
	driver   string
	compiler *querysql.SQLCompiler
}

// Open connects to the database described by cfg and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := normalizeDriver(cfg.Driver)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("open %s: dsn is required", driver)
	}

	style, err := quote.ParseStyle(string(cfg.Quote))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	var db *sql.DB
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(ctx, cfg.DSN)
	case DriverMySQL:
		db, err = openMySQL(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("open: unsupported driver %q: must be one of %v", cfg.Driver, Drivers)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("store opened", "driver", driver, "prefix", cfg.Prefix, "quote", string(style))

	return &Store{
		db:       db,
		q:        db,
		driver:   driver,
		compiler: querysql.NewSQLCompiler(quote.New(style, cfg.Prefix)),
	}, nil
}

func normalizeDriver(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite
	case "mysql", "mariadb":
		return DriverMySQL
	default:
		return name
	}
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return db, nil
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}

	db, err := sql.Open(DriverMySQL, cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection. Closing a transaction-bound Store
// is a no-op; the owning Store closes the connection.
func (s *Store) Close() error {
	if s.db == nil || s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Compiler returns the statement compiler used by this store.
func (s *Store) Compiler() *querysql.SQLCompiler {
	return s.compiler
}

// Last returns the most recently compiled statement.
func (s *Store) Last() querysql.Snapshot {
	return s.compiler.LastCompiled()
}

// logStatement records a statement about to be executed.
func logStatement(sqlText string, params []ir.Value) {
	slog.Debug("executing statement",
		"sql", sqlText,
		"params", ir.DriverArgs(params),
		"fingerprint", fingerprint(sqlText, params),
	)
}

// fingerprint is ir.Fingerprint with non-canonical params (NaN, Inf)
// mapped to "".
func fingerprint(sqlText string, params []ir.Value) string {
	fp, err := ir.Fingerprint(sqlText, params)
	if err != nil {
		return ""
	}
	return fp
}
