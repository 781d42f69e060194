package models

// Resource types named in permissions, as in "product:update".
const (
	ResourceProduct     = "product"
	ResourceOrder       = "order"
	ResourceCategory    = "category"
	ResourceProductType = "product_type"
)
