package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"gorm.io/gorm"
)

// TableName is the bookkeeping table recording applied versions.
const TableName = "schema_migrations"

// advisoryLockID serializes migration units across processes on postgres.
const advisoryLockID int64 = 0x73686f70 // "shop"

var (
	// ErrNoPrevious is returned by Down when nothing is applied.
	ErrNoPrevious = errors.New("no applied migration to revert")
	// ErrMissingMigration is returned when an applied version that must be
	// reverted has no migration in the provider.
	ErrMissingMigration = errors.New("applied version has no migration in the provider")

	errAlreadyDone = errors.New("migration state already reached")
)

type appliedMigration struct {
	Version     int64  `gorm:"primaryKey;autoIncrement:false"`
	Description string `gorm:"size:255"`
	AppliedAt   time.Time
}

func (appliedMigration) TableName() string { return TableName }

// Status summarizes the migration state of a database.
type Status struct {
	CurrentVersion int64   `json:"current_version"`
	Applied        []int64 `json:"applied"`
	Pending        []int64 `json:"pending"`
	Total          int     `json:"total"`
	HasPending     bool    `json:"has_pending"`
}

// Migrator applies the migrations of a Provider to a database.
type Migrator struct {
	db          *gorm.DB
	provider    Provider
	initialized bool
	logger      *slog.Logger
}

// New returns a migrator for db.
func New(db *gorm.DB, provider Provider) *Migrator {
	return &Migrator{
		db:       db,
		provider: provider,
		logger:   slog.Default(),
	}
}

// WithLogger returns a copy of m logging to l.
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

func (m *Migrator) Provider() Provider { return m.provider }

// DiscardLogger returns a logger that drops everything, for tests and quiet CLIs.
func DiscardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// Initialize creates the bookkeeping table if it does not exist.
func (m *Migrator) Initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}
	if err := m.db.WithContext(ctx).AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("create %s: %w", TableName, err)
	}
	m.initialized = true
	return nil
}

// CurrentVersion returns the highest applied version, or 0 on a fresh database.
func (m *Migrator) CurrentVersion(ctx context.Context) (int64, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, err
	}
	var version int64
	err := m.db.WithContext(ctx).Model(&appliedMigration{}).
		Select("COALESCE(MAX(version), 0)").Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return version, nil
}

// Applied returns the applied versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int64, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	var versions []int64
	err := m.db.WithContext(ctx).Model(&appliedMigration{}).
		Order("version").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

// Pending returns the versions above the current one, ascending.
func (m *Migrator) Pending(ctx context.Context) ([]int64, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []int64
	for _, mig := range m.provider.Migrations() {
		if mig.Version > current {
			pending = append(pending, mig.Version)
		}
	}
	return pending, nil
}

// Status reports the current version and what remains to apply.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}
	var current int64
	if n := len(applied); n > 0 {
		current = applied[n-1]
	}
	return &Status{
		CurrentVersion: current,
		Applied:        applied,
		Pending:        pending,
		Total:          len(m.provider.Migrations()),
		HasPending:     len(pending) > 0,
	}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.UpTo(ctx, math.MaxInt64)
}

// UpTo applies pending migrations with a version up to and including target,
// in ascending order. It stops at the first failing unit.
func (m *Migrator) UpTo(ctx context.Context, target int64) error {
	migrations, current, err := m.prepare(ctx)
	if err != nil {
		return err
	}

	m.logger.Info("Migrating up", "currentVersion", current, "totalMigrations", len(migrations))
	for _, mig := range migrations {
		if mig.Version <= current || mig.Version > target {
			continue
		}
		if err := m.run(ctx, mig, DirectionUp); err != nil {
			return err
		}
	}
	m.logger.Info("Migrations applied", "targetVersion", target)
	return nil
}

// Down reverts the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return ErrNoPrevious
	}
	var previous int64
	if len(applied) > 1 {
		previous = applied[len(applied)-2]
	}
	return m.DownTo(ctx, previous)
}

// DownTo reverts applied migrations above target, newest first. A target of
// 0 reverts everything. Every applied version above target must have a
// migration in the provider, otherwise nothing is reverted.
func (m *Migrator) DownTo(ctx context.Context, target int64) error {
	migrations, current, err := m.prepare(ctx)
	if err != nil {
		return err
	}
	if target >= current {
		m.logger.Info("Already at or below target version", "targetVersion", target, "currentVersion", current)
		return nil
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(migrations))
	for _, mig := range migrations {
		known[mig.Version] = true
	}
	for _, v := range applied {
		if v > target && !known[v] {
			return fmt.Errorf("%w: %d", ErrMissingMigration, v)
		}
	}

	m.logger.Info("Migrating down", "targetVersion", target, "currentVersion", current)
	for _, mig := range slices.Backward(migrations) {
		if mig.Version <= target || mig.Version > current {
			continue
		}
		if err := m.run(ctx, mig, DirectionDown); err != nil {
			return err
		}
	}
	m.logger.Info("Migrations reverted", "targetVersion", target)
	return nil
}

// To moves the database to target, up or down.
func (m *Migrator) To(ctx context.Context, target int64) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case target == current:
		m.logger.Info("Already at target version", "version", target)
		return nil
	case target > current:
		return m.UpTo(ctx, target)
	default:
		return m.DownTo(ctx, target)
	}
}

func (m *Migrator) prepare(ctx context.Context) ([]*Migration, int64, error) {
	migrations := m.provider.Migrations()
	if err := validate(migrations); err != nil {
		return nil, 0, fmt.Errorf("invalid migrations: %w", err)
	}
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, 0, err
	}
	return migrations, current, nil
}

// run executes one direction of mig and its bookkeeping in a single
// transaction. Any error rolls the whole unit back.
func (m *Migrator) run(ctx context.Context, mig *Migration, dir Direction) error {
	m.logger.Info("Running migration", "version", mig.Version, "direction", dir, "description", mig.Description)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.lock(tx, mig.Version, dir); err != nil {
			return err
		}
		if err := mig.fn(dir)(ctx, tx); err != nil {
			return err
		}
		if dir == DirectionUp {
			return tx.Create(&appliedMigration{
				Version:     mig.Version,
				Description: mig.Description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		}
		return tx.Delete(&appliedMigration{}, "version = ?", mig.Version).Error
	})
	if errors.Is(err, errAlreadyDone) {
		m.logger.Info("Migration already handled by another process", "version", mig.Version, "direction", dir)
		return nil
	}
	if err != nil {
		m.logger.Error("Migration failed", "version", mig.Version, "direction", dir, "error", err)
		return &UnitError{Version: mig.Version, Direction: dir, Err: err}
	}

	m.logger.Info("Migration done", "version", mig.Version, "direction", dir)
	return nil
}

// lock takes a transaction scoped advisory lock on postgres and re-reads the
// bookkeeping row, so concurrent migrators apply each unit once. Other
// engines serialize writers on their own.
func (m *Migrator) lock(tx *gorm.DB, version int64, dir Direction) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryLockID).Error; err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&appliedMigration{}).Where("version = ?", version).Count(&n).Error; err != nil {
		return err
	}
	if (dir == DirectionUp) == (n > 0) {
		return errAlreadyDone
	}
	return nil
}
