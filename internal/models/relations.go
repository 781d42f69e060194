package models

import "slices"

// ProductCategory is a row of the products_categories join table.
type ProductCategory struct {
	ProductID  uint `gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (ProductCategory) TableName() string { return "products_categories" }

// OrderProduct is a row of the orders_products join table.
type OrderProduct struct {
	OrderID   uint `gorm:"primaryKey;autoIncrement:false"`
	ProductID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (OrderProduct) TableName() string { return "orders_products" }

// indexOf finds item by pointer identity, then by non-zero ID.
func indexOf[T comparable](items []T, item T, key func(T) uint) int {
	var zero T
	if item == zero {
		return -1
	}
	k := key(item)
	for i, it := range items {
		if it == item || (k != 0 && it != zero && key(it) == k) {
			return i
		}
	}
	return -1
}

// removeItem deletes item from *items and returns the element that was
// stored, which may be a different pointer with the same ID.
func removeItem[T comparable](items *[]T, item T, key func(T) uint) (T, bool) {
	var zero T
	i := indexOf(*items, item, key)
	if i < 0 {
		return zero, false
	}
	stored := (*items)[i]
	*items = slices.Delete(*items, i, i+1)
	return stored, true
}

func idOf[T any](v *T, key func(*T) uint) *uint {
	if v == nil {
		return nil
	}
	id := key(v)
	if id == 0 {
		return nil
	}
	return &id
}
