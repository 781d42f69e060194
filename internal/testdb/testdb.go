// Package testdb opens throwaway in-memory sqlite databases for tests.
package testdb

import (
	"context"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/shop-api/internal/migrate"
	"github.com/diewo77/shop-api/internal/migrations"
	"github.com/diewo77/shop-api/internal/schema"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_", "?", "_", "&", "_")

// Open returns an empty database private to t, with foreign keys enforced.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + nameReplacer.Replace(t.Name()) + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and
	// serializes transactions.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// OpenMigrated returns a database with every shop migration applied.
func OpenMigrated(t testing.TB) *gorm.DB {
	t.Helper()
	db := Open(t)
	m := migrate.New(db, migrations.Provider(schema.SQLite)).WithLogger(migrate.DiscardLogger())
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
