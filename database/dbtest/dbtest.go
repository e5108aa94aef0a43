// Package dbtest provides throwaway sqlite databases for tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ichigozero/taskmgr/database"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a private in-memory database with ms applied. It is closed
// when the test ends.
func Open(t testing.TB, ms ...database.Migration) *libgorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	dsn := "file:" + name + "?mode=memory&cache=shared&_foreign_keys=on"

	db, err := libgorm.Open(sqlite.Open(dsn), &libgorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db, ms...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
