package models

import (
	"time"

	"github.com/diewo77/shop-api/internal/validation"
)

// Name length bounds enforced when a product or order is created.
const (
	NameMinLength = 2
	NameMaxLength = 50
)

// Product is a catalog item. It owns its links to User, ProductType,
// categories (products_categories) and orders (orders_products).
// Implements the Ownable interface for ownership-based authorization.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this product. Cleared when the user is deleted.
	UserID *uint `gorm:"index" json:"user_id,omitempty"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	Name    *string `gorm:"size:255" json:"name"`
	Libelle *string `gorm:"size:255" json:"libelle"`
	Price   *int    `json:"price"`

	// TypeID references product_type.id; nil means untyped.
	TypeID *uint        `gorm:"index" json:"type_id"`
	Type   *ProductType `gorm:"foreignKey:TypeID" json:"type,omitempty"`

	Categories []*Category `gorm:"many2many:products_categories" json:"categories"`
	Orders     []*Order    `gorm:"many2many:orders_products" json:"-"`

	// FilePath points at an uploaded file kept by the storage collaborator.
	FilePath *string `gorm:"size:255" json:"file_path,omitempty"`
	// ContentURL is resolved per request and never persisted.
	ContentURL string `gorm:"-" json:"content_url,omitempty"`
}

// NewProduct returns a product with empty relation collections.
func NewProduct() *Product {
	return &Product{
		Categories: []*Category{},
		Orders:     []*Order{},
	}
}

// GetUserID implements the Ownable interface. Unowned products return 0.
func (p *Product) GetUserID() uint {
	if p.UserID == nil {
		return 0
	}
	return *p.UserID
}

// PriceTVA returns price*20/100 with integer truncation, or nil when no price
// is set. This is the 20% figure itself, not a tax-inclusive price.
func (p *Product) PriceTVA() *int {
	if p.Price == nil {
		return nil
	}
	v := *p.Price * 20 / 100
	return &v
}

// SetUser assigns the owner; nil clears it.
func (p *Product) SetUser(u *User) {
	p.User = u
	p.UserID = idOf(u, func(u *User) uint { return u.ID })
}

// SetType assigns the product type; nil clears the link without touching the type row.
func (p *Product) SetType(t *ProductType) {
	p.Type = t
	p.TypeID = idOf(t, func(t *ProductType) uint { return t.ID })
}

// HasOrder reports whether o is in the product's order set.
func (p *Product) HasOrder(o *Order) bool {
	return indexOf(p.Orders, o, orderKey) >= 0
}

// AddOrder links o and p on both sides. Adding an existing order is a no-op.
func (p *Product) AddOrder(o *Order) {
	if o == nil || p.HasOrder(o) {
		return
	}
	p.Orders = append(p.Orders, o)
	o.AddProduct(p)
}

// RemoveOrder unlinks o and p on both sides. Removing an absent order is a no-op.
func (p *Product) RemoveOrder(o *Order) {
	if o == nil {
		return
	}
	stored, ok := removeItem(&p.Orders, o, orderKey)
	if !ok {
		return
	}
	stored.RemoveProduct(p)
	if stored != o {
		o.RemoveProduct(p)
	}
}

// HasCategory reports whether c is in the product's category set.
func (p *Product) HasCategory(c *Category) bool {
	return indexOf(p.Categories, c, categoryKey) >= 0
}

// AddProductCategory adds c once and mirrors the link on the category.
func (p *Product) AddProductCategory(c *Category) {
	if c == nil || p.HasCategory(c) {
		return
	}
	p.Categories = append(p.Categories, c)
	c.AddProduct(p)
}

// RemoveProductCategory removes c from both sides if present.
func (p *Product) RemoveProductCategory(c *Category) {
	if c == nil {
		return
	}
	stored, ok := removeItem(&p.Categories, c, categoryKey)
	if !ok {
		return
	}
	stored.RemoveProduct(p)
	if stored != c {
		c.RemoveProduct(p)
	}
}

// ValidateForCreate checks the constraints enforced when a product is created.
func (p *Product) ValidateForCreate() error {
	return validateNamed(p.Name, p.Libelle)
}

func validateNamed(name, libelle *string) error {
	v := make(validation.Violations)
	validation.RequiredPtr("name", name, v)
	if name != nil {
		validation.Length("name", *name, NameMinLength, NameMaxLength, v)
	}
	validation.RequiredPtr("libelle", libelle, v)
	return v.Err()
}

func productKey(p *Product) uint { return p.ID }
