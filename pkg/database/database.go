package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedURL = errors.New("unsupported database url")

const memoryPath = ":memory:"

// Open connects to the store named by databaseURL.
//
// Accepted forms: sqlite:///relative/path.db, sqlite:////absolute/path.db,
// sqlite://:memory:, postgres://... and postgresql://...
// For file-backed SQLite the parent directory is created first.
func Open(databaseURL string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch {
	case strings.HasPrefix(databaseURL, "sqlite:"):
		path, err := SQLitePath(databaseURL)
		if err != nil {
			return nil, err
		}
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		db, err := gorm.Open(sqlite.Open(sqliteDSN(path, sqliteQuery(databaseURL))), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite serializes writers; one connection keeps that explicit
		sqlDB.SetMaxOpenConns(1)
		return db, nil

	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := gorm.Open(postgres.Open(databaseURL), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		return db, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, databaseURL)
}

// SQLitePath extracts the filesystem path from a sqlite URL, without any query.
// "sqlite:///./data/x.db" -> "./data/x.db", "sqlite:////var/x.db" -> "/var/x.db".
func SQLitePath(databaseURL string) (string, error) {
	databaseURL, _, _ = strings.Cut(databaseURL, "?")
	rest, ok := strings.CutPrefix(databaseURL, "sqlite://")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, databaseURL)
	}
	if rest == memoryPath || rest == "/"+memoryPath {
		return memoryPath, nil
	}
	path, ok := strings.CutPrefix(rest, "/")
	if !ok || path == "" {
		return "", fmt.Errorf("%w: %q has no path", ErrUnsupportedURL, databaseURL)
	}
	return path, nil
}

func sqliteQuery(databaseURL string) string {
	_, query, _ := strings.Cut(databaseURL, "?")
	return query
}

// sqliteDSN appends the connection pragmas to any query the URL already carried
func sqliteDSN(path, query string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if query != "" {
		return path + "?" + query + "&" + pragmas
	}
	return path + "?" + pragmas
}

func ensureDir(path string) error {
	if path == memoryPath {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// Session returns a unit-of-work handle bound to ctx.
func Session(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx)
}

// WithTransaction runs fn in a transaction, committing when fn returns nil
// and rolling back on error or panic.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return Session(ctx, db).Transaction(fn)
}

// InitializeSchema creates missing tables for models. Safe on every start.
func InitializeSchema(ctx context.Context, db *gorm.DB, models ...any) error {
	if err := Session(ctx, db).AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
