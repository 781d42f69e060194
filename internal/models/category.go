package models

// Category is a product grouping. Product owns products_categories;
// Category.Products is the inverse side.
type Category struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    *string `gorm:"size:255" json:"name"`
	Libelle *string `gorm:"size:255" json:"libelle"`

	Products []*Product `gorm:"many2many:products_categories" json:"-"`
}

// NewCategory returns a category with an empty product set.
func NewCategory() *Category {
	return &Category{Products: []*Product{}}
}

// HasProduct reports whether p is in the category.
func (c *Category) HasProduct(p *Product) bool {
	return indexOf(c.Products, p, productKey) >= 0
}

// AddProduct links p and c on both sides.
func (c *Category) AddProduct(p *Product) {
	if p == nil || c.HasProduct(p) {
		return
	}
	c.Products = append(c.Products, p)
	p.AddProductCategory(c)
}

// RemoveProduct unlinks p and c on both sides.
func (c *Category) RemoveProduct(p *Product) {
	if p == nil {
		return
	}
	stored, ok := removeItem(&c.Products, p, productKey)
	if !ok {
		return
	}
	stored.RemoveProductCategory(c)
	if stored != p {
		p.RemoveProductCategory(c)
	}
}

func categoryKey(c *Category) uint { return c.ID }

// ProductType is a lookup table for products (product_type).
type ProductType struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    *string `gorm:"size:255" json:"name"`
	Libelle *string `gorm:"size:255" json:"libelle"`
}

// TableName keeps the singular table name created by the product_type migration.
func (ProductType) TableName() string { return "product_type" }
