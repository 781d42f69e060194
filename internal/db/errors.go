package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ConstraintKind names the integrity rule a write broke.
type ConstraintKind string

const (
	ForeignKeyViolation ConstraintKind = "foreign_key"
	UniqueViolation     ConstraintKind = "unique"
	NotNullViolation    ConstraintKind = "not_null"
)

// SQLSTATE codes from the integrity constraint violation class.
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// ConstraintViolationError is a write rejected by the store's integrity
// rules. Err is the driver error, unchanged.
type ConstraintViolationError struct {
	Kind       ConstraintKind
	Constraint string // constraint name when the driver reports it
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint violation (%s %s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("constraint violation (%s): %v", e.Kind, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// ClassifyError wraps integrity errors from postgres or sqlite in a
// *ConstraintViolationError. Other errors, including nil, come back as is.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var cv *ConstraintViolationError
	if errors.As(err, &cv) {
		return err
	}
	if kind, name, ok := constraintOf(err); ok {
		return &ConstraintViolationError{Kind: kind, Constraint: name, Err: err}
	}
	return err
}

func constraintOf(err error) (ConstraintKind, string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return ForeignKeyViolation, pgErr.ConstraintName, true
		case pgUniqueViolation:
			return UniqueViolation, pgErr.ConstraintName, true
		case pgNotNullViolation:
			return NotNullViolation, pgErr.ColumnName, true
		}
		return "", "", false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return ForeignKeyViolation, "", true
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return UniqueViolation, "", true
		case sqlite3.ErrConstraintNotNull:
			return NotNullViolation, "", true
		}
		return "", "", false
	}

	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ForeignKeyViolation, "", true
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return UniqueViolation, "", true
	}
	return "", "", false
}
