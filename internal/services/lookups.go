package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/models"
)

func (s *CatalogService) CreateProductType(ctx context.Context, t *models.ProductType) (*models.ProductType, error) {
	if err := s.tx(ctx, func(tx *gorm.DB) error { return tx.Create(t).Error }); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CatalogService) UpdateProductType(ctx context.Context, id uint, in *models.ProductType) (*models.ProductType, error) {
	return updateNamed[models.ProductType](ctx, s, id, "product type", in)
}

// DeleteProductType removes a type. Products pointing at it become untyped.
func (s *CatalogService) DeleteProductType(ctx context.Context, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		return remove[models.ProductType](tx, id, "product type")
	})
}

func (s *CatalogService) GetProductType(ctx context.Context, id uint) (*models.ProductType, error) {
	return load[models.ProductType](s.db.WithContext(ctx), id, "product type")
}

func (s *CatalogService) ListProductTypes(ctx context.Context) ([]*models.ProductType, error) {
	var types []*models.ProductType
	if err := s.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Omit("Products").Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in *models.Category) (*models.Category, error) {
	return updateNamed[models.Category](ctx, s, id, "category", in)
}

// DeleteCategory removes a category and its product links. Products stay.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		return remove[models.Category](tx, id, "category")
	})
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return load[models.Category](s.db.WithContext(ctx), id, "category", "Products")
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var cats []*models.Category
	if err := s.db.WithContext(ctx).Order("id").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// updateNamed overwrites name and libelle of the lookup row id.
func updateNamed[T any](ctx context.Context, s *CatalogService, id uint, what string, in *T) (*T, error) {
	var out *T
	err := s.tx(ctx, func(tx *gorm.DB) error {
		cur, err := load[T](tx, id, what)
		if err != nil {
			return err
		}
		if err := tx.Model(cur).Select("name", "libelle").Updates(in).Error; err != nil {
			return err
		}
		out, err = load[T](tx, id, what)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
