// Package migrate applies versioned, reversible schema change units to a gorm
// database. Every unit runs in its own transaction together with its
// bookkeeping row, so a failed unit leaves the schema exactly as it was.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Direction of a migration step.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Func performs one direction of a migration inside the unit's transaction.
type Func func(ctx context.Context, tx *gorm.DB) error

// Migration is a single versioned schema change.
type Migration struct {
	Version     int64
	Description string
	Up          Func
	Down        Func
}

func (m *Migration) fn(dir Direction) Func {
	if dir == DirectionDown {
		return m.Down
	}
	return m.Up
}

// Exec returns a Func running stmts in order. The first failing statement
// aborts the unit; its error is returned with the offending SQL appended.
func Exec(stmts ...string) Func {
	return func(ctx context.Context, tx *gorm.DB) error {
		for _, stmt := range stmts {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := tx.WithContext(ctx).Exec(stmt).Error; err != nil {
				return fmt.Errorf("%w\nSQL: %s", err, stmt)
			}
		}
		return nil
	}
}

// FromStatements builds a migration out of plain SQL statements.
func FromStatements(version int64, description string, up, down []string) *Migration {
	return &Migration{
		Version:     version,
		Description: description,
		Up:          Exec(up...),
		Down:        Exec(down...),
	}
}

// UnitError reports a failed migration unit. The unit was rolled back; Err is
// the store error as returned by the driver.
type UnitError struct {
	Version   int64
	Direction Direction
	Err       error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed: %v", e.Version, e.Direction, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }
