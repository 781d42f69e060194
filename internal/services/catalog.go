// Package services holds the catalog's aggregate operations. Each call runs
// in one transaction that writes the join tables and returns aggregates whose
// in-memory relations match what was persisted.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/db"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(conn *gorm.DB) *CatalogService {
	return &CatalogService{db: conn}
}

func (s *CatalogService) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.ClassifyError(s.db.WithContext(ctx).Transaction(fn))
}

// load fetches the row with primary key id into a new T.
func load[T any](tx *gorm.DB, id uint, what string, preloads ...string) (*T, error) {
	q := tx
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var v T
	if err := q.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}

// remove deletes the row of T with primary key id.
func remove[T any](tx *gorm.DB, id uint, what string) error {
	res := tx.Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
