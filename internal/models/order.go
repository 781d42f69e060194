package models

import "time"

// Order groups products for a user. It owns the orders_products join table;
// Product.Orders is the inverse side and is kept in sync by both accessors.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID *uint `gorm:"index" json:"user_id,omitempty"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	Name    *string `gorm:"size:255" json:"name"`
	Libelle *string `gorm:"size:255" json:"libelle"`

	Products []*Product `gorm:"many2many:orders_products" json:"products"`
}

// NewOrder returns an order with an empty product set.
func NewOrder() *Order {
	return &Order{Products: []*Product{}}
}

// GetUserID implements the Ownable interface. Unowned orders return 0.
func (o *Order) GetUserID() uint {
	if o.UserID == nil {
		return 0
	}
	return *o.UserID
}

// SetUser assigns the owner; nil clears it.
func (o *Order) SetUser(u *User) {
	o.User = u
	o.UserID = idOf(u, func(u *User) uint { return u.ID })
}

// HasProduct reports whether p is in the order.
func (o *Order) HasProduct(p *Product) bool {
	return indexOf(o.Products, p, productKey) >= 0
}

// AddProduct links p and o on both sides. Adding an existing product is a no-op.
func (o *Order) AddProduct(p *Product) {
	if p == nil || o.HasProduct(p) {
		return
	}
	o.Products = append(o.Products, p)
	p.AddOrder(o)
}

// RemoveProduct unlinks p and o on both sides. Removing an absent product is a no-op.
func (o *Order) RemoveProduct(p *Product) {
	if p == nil {
		return
	}
	stored, ok := removeItem(&o.Products, p, productKey)
	if !ok {
		return
	}
	stored.RemoveOrder(o)
	if stored != p {
		p.RemoveOrder(o)
	}
}

// ValidateForCreate checks the constraints enforced when an order is created.
func (o *Order) ValidateForCreate() error {
	return validateNamed(o.Name, o.Libelle)
}

func orderKey(o *Order) uint { return o.ID }

// OrderChange pairs a stored order with the values an update would write.
// Authorization of updates inspects both sides.
type OrderChange struct {
	Stored *Order
	Next   *Order
}
