package schema

import "slices"

// Table names.
const (
	UsersTable              = "users"
	CategoriesTable         = "categories"
	ProductsTable           = "products"
	OrdersTable             = "orders"
	ProductTypeTable        = "product_type"
	ProductsCategoriesTable = "products_categories"
	OrdersProductsTable     = "orders_products"
)

func idColumn() Column {
	return Column{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoIncrement: true}
}

func label(name string) Column {
	return Column{Name: name, Type: TypeString, Length: 255, Nullable: true}
}

func timestamps() []Column {
	return []Column{
		{Name: "created_at", Type: TypeTimestamp, Nullable: true},
		{Name: "updated_at", Type: TypeTimestamp, Nullable: true},
	}
}

// Users is the users table.
var Users = Table{
	Name: UsersTable,
	Columns: append([]Column{
		idColumn(),
		{Name: "email", Type: TypeString, Length: 180},
		{Name: "name", Type: TypeString, Length: 255, Nullable: true},
		{Name: "password", Type: TypeString, Length: 255},
		{Name: "roles", Type: TypeText, Default: "'[]'"},
	}, timestamps()...),
	Indexes: []Index{{Name: "uniq_users_email", Columns: []string{"email"}, Unique: true}},
}

// Categories is the categories table.
var Categories = Table{
	Name:    CategoriesTable,
	Columns: []Column{idColumn(), label("name"), label("libelle")},
}

// ProductsBaseline is the products table before product types existed.
var ProductsBaseline = Table{
	Name: ProductsTable,
	Columns: append([]Column{
		idColumn(),
		{Name: "user_id", Type: TypeInteger, Nullable: true},
		label("name"),
		label("libelle"),
		{Name: "price", Type: TypeInteger, Nullable: true},
		label("file_path"),
	}, timestamps()...),
	ForeignKeys: []ForeignKey{
		{Name: "fk_products_user_id", Column: "user_id", RefTable: UsersTable, RefColumn: "id", OnDelete: SetNull},
	},
	Indexes: []Index{{Name: "idx_products_user_id", Columns: []string{"user_id"}}},
}

// Orders is the orders table.
var Orders = Table{
	Name: OrdersTable,
	Columns: append([]Column{
		idColumn(),
		{Name: "user_id", Type: TypeInteger, Nullable: true},
		label("name"),
		label("libelle"),
	}, timestamps()...),
	ForeignKeys: []ForeignKey{
		{Name: "fk_orders_user_id", Column: "user_id", RefTable: UsersTable, RefColumn: "id", OnDelete: SetNull},
	},
	Indexes: []Index{{Name: "idx_orders_user_id", Columns: []string{"user_id"}}},
}

// ProductsCategories joins products and categories.
var ProductsCategories = joinTable(ProductsCategoriesTable, "product_id", ProductsTable, "category_id", CategoriesTable)

// OrdersProducts joins orders and products.
var OrdersProducts = joinTable(OrdersProductsTable, "order_id", OrdersTable, "product_id", ProductsTable)

func joinTable(name, leftCol, leftTable, rightCol, rightTable string) Table {
	return Table{
		Name: name,
		Columns: []Column{
			{Name: leftCol, Type: TypeInteger},
			{Name: rightCol, Type: TypeInteger},
		},
		PrimaryKey: []string{leftCol, rightCol},
		ForeignKeys: []ForeignKey{
			{Name: "fk_" + name + "_" + leftCol, Column: leftCol, RefTable: leftTable, RefColumn: "id", OnDelete: Cascade},
			{Name: "fk_" + name + "_" + rightCol, Column: rightCol, RefTable: rightTable, RefColumn: "id", OnDelete: Cascade},
		},
		Indexes: []Index{{Name: "idx_" + name + "_" + rightCol, Columns: []string{rightCol}}},
	}
}

// ProductType is the product_type lookup table.
var ProductType = Table{
	Name:    ProductTypeTable,
	Columns: []Column{idColumn(), label("name"), label("libelle")},
}

// ProductsTypeID is the nullable column linking products to product_type.
var ProductsTypeID = Column{Name: "type_id", Type: TypeInteger, Nullable: true}

// ProductsTypeFK is the foreign key on products.type_id.
var ProductsTypeFK = ForeignKey{
	Name:      "fk_products_type_id",
	Column:    "type_id",
	RefTable:  ProductTypeTable,
	RefColumn: "id",
	OnDelete:  SetNull,
}

// ProductsTypeIndex indexes products.type_id.
var ProductsTypeIndex = Index{Name: "idx_products_type_id", Columns: []string{"type_id"}}

// Products is the current products table.
func Products() Table {
	t := ProductsBaseline
	t.Columns = append(slices.Clone(t.Columns), ProductsTypeID)
	t.ForeignKeys = append(slices.Clone(t.ForeignKeys), ProductsTypeFK)
	t.Indexes = append(slices.Clone(t.Indexes), ProductsTypeIndex)
	return t
}

// Shop returns the current schema with every relation between the entities.
func Shop() Registry {
	return Registry{
		Tables: []Table{
			Users, Categories, ProductType, Products(), Orders,
			ProductsCategories, OrdersProducts,
		},
		Relations: []Relation{
			{Name: "products.user", Kind: ManyToOne, Owner: ProductsTable, Target: UsersTable, Column: "user_id", InversedBy: "users.products", OnDelete: SetNull},
			{Name: "users.products", Kind: OneToMany, Owner: UsersTable, Target: ProductsTable, MappedBy: "products.user"},
			{Name: "orders.user", Kind: ManyToOne, Owner: OrdersTable, Target: UsersTable, Column: "user_id", InversedBy: "users.orders", OnDelete: SetNull},
			{Name: "users.orders", Kind: OneToMany, Owner: UsersTable, Target: OrdersTable, MappedBy: "orders.user"},
			{Name: "products.type", Kind: ManyToOne, Owner: ProductsTable, Target: ProductTypeTable, Column: "type_id", OnDelete: SetNull},
			{Name: "products.categories", Kind: ManyToMany, Owner: ProductsTable, Target: CategoriesTable, JoinTable: ProductsCategoriesTable, InversedBy: "categories.products", OnDelete: Cascade},
			{Name: "categories.products", Kind: ManyToMany, Owner: CategoriesTable, Target: ProductsTable, MappedBy: "products.categories"},
			{Name: "orders.products", Kind: ManyToMany, Owner: OrdersTable, Target: ProductsTable, JoinTable: OrdersProductsTable, InversedBy: "products.orders", OnDelete: Cascade},
			{Name: "products.orders", Kind: ManyToMany, Owner: ProductsTable, Target: OrdersTable, MappedBy: "orders.products"},
		},
	}
}
