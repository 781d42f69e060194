package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/shop-api/internal/models"
)

// OrderFilter narrows ListOrders. Zero fields do not filter.
type OrderFilter struct {
	UserID uint
}

// Totals sums the priced products of an order. TVA is the sum of each
// product's PriceTVA, so it carries the same per-line truncation.
type Totals struct {
	Price int `json:"price"`
	TVA   int `json:"price_tva"`
	Total int `json:"total"`
	// Unpriced counts products without a price; they add nothing.
	Unpriced int `json:"unpriced"`
}

// CreateOrder validates and inserts o, then links every product already in
// o.Products. A product id with no row aborts the whole order.
func (s *CatalogService) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	if err := o.ValidateForCreate(); err != nil {
		return nil, err
	}
	var out *models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return err
		}
		for _, p := range o.Products {
			if p == nil {
				continue
			}
			if _, err := load[models.Product](tx, p.ID, "product"); err != nil {
				return err
			}
			link := models.OrderProduct{OrderID: o.ID, ProductID: p.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		var err error
		out, err = load[models.Order](tx, o.ID, "order", "Products")
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrder overwrites name, libelle and owner of order id.
func (s *CatalogService) UpdateOrder(ctx context.Context, id uint, in *models.Order) (*models.Order, error) {
	var out *models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if _, err := load[models.Order](tx, id, "order"); err != nil {
			return err
		}
		err := tx.Model(&models.Order{ID: id}).
			Select("name", "libelle", "user_id", "updated_at").
			Updates(in).Error
		if err != nil {
			return err
		}
		out, err = load[models.Order](tx, id, "order", "Products")
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOrder removes an order and its product links. Products stay.
func (s *CatalogService) DeleteOrder(ctx context.Context, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		return remove[models.Order](tx, id, "order")
	})
}

func (s *CatalogService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return load[models.Order](s.db.WithContext(ctx), id, "order", "Products")
}

func (s *CatalogService) ListOrders(ctx context.Context, f OrderFilter) ([]*models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Products")
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var orders []*models.Order
	if err := q.Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// AttachProductToOrder links a product and an order on both sides. Attaching
// an already linked pair is a no-op.
func (s *CatalogService) AttachProductToOrder(ctx context.Context, orderID, productID uint) (*models.Order, error) {
	return s.linkOrderProduct(ctx, orderID, productID, true)
}

// DetachProductFromOrder removes the link on both sides. Detaching an absent
// pair is a no-op.
func (s *CatalogService) DetachProductFromOrder(ctx context.Context, orderID, productID uint) (*models.Order, error) {
	return s.linkOrderProduct(ctx, orderID, productID, false)
}

func (s *CatalogService) linkOrderProduct(ctx context.Context, orderID, productID uint, attach bool) (*models.Order, error) {
	var out *models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		o, err := load[models.Order](tx, orderID, "order", "Products")
		if err != nil {
			return err
		}
		p, err := load[models.Product](tx, productID, "product", "Orders")
		if err != nil {
			return err
		}
		if attach {
			link := models.OrderProduct{OrderID: o.ID, ProductID: p.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
			o.AddProduct(p)
		} else {
			err := tx.Where("order_id = ? AND product_id = ?", o.ID, p.ID).Delete(&models.OrderProduct{}).Error
			if err != nil {
				return err
			}
			o.RemoveProduct(p)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeTotals calculates price, TVA and total for an order's products.
func (s *CatalogService) ComputeTotals(o *models.Order) Totals {
	var t Totals
	for _, p := range o.Products {
		if p == nil || p.Price == nil {
			t.Unpriced++
			continue
		}
		t.Price += *p.Price
		t.TVA += *p.PriceTVA()
	}
	t.Total = t.Price + t.TVA
	return t
}

// GetSpend sums ComputeTotals over every order owned by userID.
func (s *CatalogService) GetSpend(ctx context.Context, userID uint) (Totals, error) {
	orders, err := s.ListOrders(ctx, OrderFilter{UserID: userID})
	if err != nil {
		return Totals{}, err
	}
	var sum Totals
	for _, o := range orders {
		t := s.ComputeTotals(o)
		sum.Price += t.Price
		sum.TVA += t.TVA
		sum.Total += t.Total
		sum.Unpriced += t.Unpriced
	}
	return sum, nil
}
