// Package migrations holds the shop's schema change units, rendered for a
// given SQL dialect from the descriptors in package schema.
package migrations

import (
	"slices"

	"github.com/diewo77/shop-api/internal/migrate"
	"github.com/diewo77/shop-api/internal/schema"
)

// Versions of the registered units.
const (
	InitialCatalog int64 = 20230401000000
	ProductType    int64 = 20230410110829
)

// Unit is a migration before rendering: its statements are produced per dialect.
type Unit struct {
	Version     int64
	Description string
	SQL         func(d schema.Dialect) (up, down []string)
}

// Units lists every unit in version order.
var Units = []Unit{
	{Version: InitialCatalog, Description: "initial catalog", SQL: InitialSQL},
	{Version: ProductType, Description: "add product_type", SQL: ProductTypeSQL},
}

// Provider returns every unit rendered for d.
func Provider(d schema.Dialect) *migrate.RegisteredProvider {
	p := migrate.NewRegisteredProvider()
	for _, u := range Units {
		p.Register(u.Migration(d))
	}
	return p
}

// Migration renders u for d.
func (u Unit) Migration(d schema.Dialect) *migrate.Migration {
	up, down := u.SQL(d)
	return migrate.FromStatements(u.Version, u.Description, up, down)
}

var initialTables = []schema.Table{
	schema.Users,
	schema.Categories,
	schema.ProductsBaseline,
	schema.Orders,
	schema.ProductsCategories,
	schema.OrdersProducts,
}

// InitialSQL creates the catalog as it stood before product types: users,
// categories, products, orders and both join tables.
func InitialSQL(d schema.Dialect) (up, down []string) {
	for _, t := range initialTables {
		up = append(up, d.CreateTable(t)...)
	}
	for _, t := range slices.Backward(initialTables) {
		down = append(down, d.DropTable(t.Name)...)
	}
	return up, down
}

// ProductTypeSQL creates product_type and links products to it through a
// nullable, indexed type_id.
func ProductTypeSQL(d schema.Dialect) (up, down []string) {
	fk := schema.ProductsTypeFK

	up = append(up, d.CreateTable(schema.ProductType)...)
	up = append(up, d.AddColumn(schema.ProductsTable, schema.ProductsTypeID, &fk)...)
	up = append(up, d.AddForeignKey(schema.ProductsTable, fk)...)
	up = append(up, d.CreateIndex(schema.ProductsTable, schema.ProductsTypeIndex)...)

	// The constraint and index depend on the column, so they go first.
	down = append(down, d.DropForeignKey(schema.ProductsTable, fk.Name)...)
	down = append(down, d.DropTable(schema.ProductTypeTable)...)
	down = append(down, d.DropIndex(schema.ProductsTable, schema.ProductsTypeIndex.Name)...)
	down = append(down, d.DropColumn(schema.ProductsTable, schema.ProductsTypeID.Name)...)
	return up, down
}
