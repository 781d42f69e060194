// Package db connects to the configured store, runs the shop migrations and
// seeds reference data.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/shop-api/internal/config"
	"github.com/diewo77/shop-api/internal/migrate"
	"github.com/diewo77/shop-api/internal/migrations"
	"github.com/diewo77/shop-api/internal/schema"
)

// connectAttempts gives Postgres time to come up in containerized setups.
const connectAttempts = 5

// Connect opens the database selected by cfg.Driver.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	switch cfg.Driver {
	case config.DriverSQLite:
		log.Printf("Opening sqlite database: %s", cfg.SQLitePath)
		db, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil

	case config.DriverPostgres:
		log.Printf("Connecting to database: host=%s port=%d dbname=%s user=%s",
			cfg.Host, cfg.Port, cfg.DBName, cfg.User)
		var (
			db  *gorm.DB
			err error
		)
		for i := range connectAttempts {
			db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
			if err == nil {
				break
			}
			log.Printf("Connection attempt %d/%d failed, retrying: %v", i+1, connectAttempts, err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
		if err := db.Exec("SELECT 1").Error; err != nil {
			return nil, fmt.Errorf("db ping failed: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// NewMigrator returns a migrator over every shop migration, rendered for the
// dialect of db.
func NewMigrator(db *gorm.DB) (*migrate.Migrator, error) {
	d, err := schema.DialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	return migrate.New(db, migrations.Provider(d)), nil
}

// Migrate applies every pending migration and checks the core tables exist.
func Migrate(ctx context.Context, db *gorm.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(ctx); err != nil {
		return err
	}
	for _, t := range schema.Shop().Tables {
		if !db.Migrator().HasTable(t.Name) {
			return errors.New("missing table after migration: " + t.Name)
		}
	}
	return nil
}
