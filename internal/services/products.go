package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/shop-api/internal/models"
)

// ProductFilter narrows ListProducts. Zero fields do not filter.
type ProductFilter struct {
	UserID     uint
	TypeID     uint
	CategoryID uint
}

var productPreloads = []string{"Type", "Categories", "Orders"}

// productColumns are the columns a product update may change.
var productColumns = []string{"name", "libelle", "price", "file_path", "type_id", "updated_at"}

// CreateProduct validates and inserts p. Categories already present on p are
// linked in the same transaction.
func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := p.ValidateForCreate(); err != nil {
		return nil, err
	}
	var out *models.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		for _, c := range p.Categories {
			if c == nil {
				continue
			}
			link := models.ProductCategory{ProductID: p.ID, CategoryID: c.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		var err error
		out, err = load[models.Product](tx, p.ID, "product", productPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProduct overwrites the editable fields of product id with those of in.
// Creation rules are not re-checked.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in *models.Product) (*models.Product, error) {
	var out *models.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if _, err := load[models.Product](tx, id, "product"); err != nil {
			return err
		}
		if err := tx.Model(&models.Product{ID: id}).Select(productColumns).Updates(in).Error; err != nil {
			return err
		}
		var err error
		out, err = load[models.Product](tx, id, "product", productPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProduct removes a product; its category and order links go with it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		return remove[models.Product](tx, id, "product")
	})
}

// GetProduct returns a product with its type, categories and orders.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return load[models.Product](s.db.WithContext(ctx), id, "product", productPreloads...)
}

func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]*models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	for _, p := range productPreloads {
		q = q.Preload(p)
	}
	if f.UserID != 0 {
		q = q.Where("products.user_id = ?", f.UserID)
	}
	if f.TypeID != 0 {
		q = q.Where("products.type_id = ?", f.TypeID)
	}
	if f.CategoryID != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM products_categories pc WHERE pc.product_id = products.id AND pc.category_id = ?)", f.CategoryID)
	}
	var products []*models.Product
	if err := q.Order("products.id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SetProductType points product id at typeID, or clears the link when typeID
// is nil. Clearing never touches the product_type row. A typeID with no row
// fails with a constraint violation.
func (s *CatalogService) SetProductType(ctx context.Context, id uint, typeID *uint) (*models.Product, error) {
	var out *models.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := load[models.Product](tx, id, "product")
		if err != nil {
			return err
		}
		if typeID == nil {
			p.SetType(nil)
		} else {
			p.TypeID = typeID
		}
		if err := tx.Model(p).Select("type_id", "updated_at").Updates(p).Error; err != nil {
			return err
		}
		out, err = load[models.Product](tx, id, "product", productPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddProductCategory links a product to a category. Linking twice is a no-op.
func (s *CatalogService) AddProductCategory(ctx context.Context, productID, categoryID uint) (*models.Product, error) {
	var out *models.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := load[models.Product](tx, productID, "product", "Categories")
		if err != nil {
			return err
		}
		c, err := load[models.Category](tx, categoryID, "category", "Products")
		if err != nil {
			return err
		}
		link := models.ProductCategory{ProductID: p.ID, CategoryID: c.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return err
		}
		p.AddProductCategory(c)
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveProductCategory unlinks a product from a category. Removing a missing
// link is a no-op.
func (s *CatalogService) RemoveProductCategory(ctx context.Context, productID, categoryID uint) (*models.Product, error) {
	var out *models.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := load[models.Product](tx, productID, "product", "Categories")
		if err != nil {
			return err
		}
		c, err := load[models.Category](tx, categoryID, "category", "Products")
		if err != nil {
			return err
		}
		err = tx.Where("product_id = ? AND category_id = ?", p.ID, c.ID).Delete(&models.ProductCategory{}).Error
		if err != nil {
			return err
		}
		p.RemoveProductCategory(c)
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
