// Package database opens the gorm connection shared by the repositories.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

// DefaultSQLiteDSN is used when no database URL is configured.
const DefaultSQLiteDSN = "taskmgr.db?_foreign_keys=on&_busy_timeout=5000"

const sqlitePrefix = "sqlite://"

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// Dialector picks the driver for url: postgres for a connection string,
// sqlite for an empty url or one starting with sqlite://.
func Dialector(url string) libgorm.Dialector {
	switch {
	case url == "":
		return sqlite.Open(DefaultSQLiteDSN)
	case strings.HasPrefix(url, sqlitePrefix):
		return sqlite.Open(strings.TrimPrefix(url, sqlitePrefix))
	}
	return postgres.Open(url)
}

// Open connects to the database at url and configures the pool.
func Open(url string, logger log.Logger) (*libgorm.DB, error) {
	dialector := Dialector(url)

	db, err := libgorm.Open(dialector, &libgorm.Config{
		TranslateError: true,
		Logger:         NewLogger(logger, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dialector.Name() == "sqlite" {
		// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *libgorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migration creates or updates the tables of one repository.
type Migration func(db *libgorm.DB) error

// Migrate runs ms in order; referenced tables must come first.
func Migrate(db *libgorm.DB, ms ...Migration) error {
	for _, m := range ms {
		if err := m(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a rejected insert or update
// because of a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, libgorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health checks that the database answers within the deadline of ctx.
func Health(ctx context.Context, p Pinger) error {
	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
