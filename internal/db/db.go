// Package db opens the ORM handle shared by the persistence gateway and
// applies the embedded schema.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alexadark/workshop-cityjs/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const pingTimeout = 5 * time.Second

// Open connects to the database described by cfg and migrates it.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(cfg.URL)
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// OpenSQLite opens (creating if needed) the sqlite file at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("db: create directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}
	gdb, err := finish(sqlDB, sqlite.New(sqlite.Config{Conn: sqlDB}), "schema/sqlite.sql")
	if err != nil {
		return nil, err
	}
	log.Printf("[db] open: sqlite database at %s", path)
	return gdb, nil
}

// OpenPostgres connects through pgx's database/sql adapter.
func OpenPostgres(url string) (*gorm.DB, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("db: parse postgres url: %w", err)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.StatementCacheCapacity = 256
	sqlDB := stdlib.OpenDB(*cfg)
	gdb, err := finish(sqlDB, postgres.New(postgres.Config{Conn: sqlDB}), "schema/postgres.sql")
	if err != nil {
		return nil, err
	}
	log.Printf("[db] open: postgres database at %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return gdb, nil
}

func finish(sqlDB *sql.DB, dialector gorm.Dialector, schema string) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger: logger.New(log.Default(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("db: init orm: %w", err)
	}
	if err := migrate(gdb, schema); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

func migrate(gdb *gorm.DB, schema string) error {
	sqlBytes, err := fs.ReadFile(schemaFS, schema)
	if err != nil {
		return fmt.Errorf("db: read %s: %w", schema, err)
	}
	for _, stmt := range strings.Split(string(sqlBytes), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool behind gdb.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
