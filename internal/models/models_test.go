package models

import (
	"errors"
	"testing"

	"github.com/diewo77/shop-api/internal/validation"
)

func ptr[T any](v T) *T { return &v }

func TestProduct_GetUserID(t *testing.T) {
	product := &Product{UserID: ptr(uint(42))}
	if got := product.GetUserID(); got != 42 {
		t.Errorf("GetUserID() = %d, want 42", got)
	}
	if got := NewProduct().GetUserID(); got != 0 {
		t.Errorf("GetUserID() on unowned product = %d, want 0", got)
	}
}

func TestProduct_PriceTVA(t *testing.T) {
	tests := []struct {
		name  string
		price *int
		want  *int
	}{
		{"100 gives 20", ptr(100), ptr(20)},
		{"truncates", ptr(199), ptr(39)},
		{"small price truncates to zero", ptr(4), ptr(0)},
		{"zero", ptr(0), ptr(0)},
		{"nil price", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Price: tt.price}
			got := p.PriceTVA()
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("PriceTVA() = %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("PriceTVA() = nil, want %d", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("PriceTVA() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestProduct_AddOrder_Symmetric(t *testing.T) {
	p := NewProduct()
	o := NewOrder()

	p.AddOrder(o)

	if !p.HasOrder(o) || !o.HasProduct(p) {
		t.Fatal("AddOrder must register the pair on both sides")
	}
	if len(p.Orders) != 1 || len(o.Products) != 1 {
		t.Errorf("expected one link per side, got product=%d order=%d", len(p.Orders), len(o.Products))
	}

	p.RemoveOrder(o)
	if p.HasOrder(o) || o.HasProduct(p) {
		t.Fatal("RemoveOrder must detach both sides")
	}
}

func TestOrder_AddProduct_Symmetric(t *testing.T) {
	p := NewProduct()
	o := NewOrder()

	o.AddProduct(p)
	o.AddProduct(p)

	if len(o.Products) != 1 || len(p.Orders) != 1 {
		t.Fatalf("expected one link per side, got order=%d product=%d", len(o.Products), len(p.Orders))
	}

	o.RemoveProduct(p)
	o.RemoveProduct(p)
	if len(o.Products) != 0 || len(p.Orders) != 0 {
		t.Errorf("expected both sides empty, got order=%d product=%d", len(o.Products), len(p.Orders))
	}
}

func TestProduct_AddOrder_MatchesByID(t *testing.T) {
	p := NewProduct()
	first := &Order{ID: 7}
	sameRow := &Order{ID: 7}

	p.AddOrder(first)
	p.AddOrder(sameRow)
	if len(p.Orders) != 1 {
		t.Fatalf("orders with the same ID should count once, got %d", len(p.Orders))
	}

	p.RemoveOrder(sameRow)
	if len(p.Orders) != 0 {
		t.Errorf("removing by ID should detach the stored order, got %d left", len(p.Orders))
	}
	if first.HasProduct(p) {
		t.Error("stored order should no longer reference the product")
	}
}

func TestOrder_RemoveProduct_MatchesByID(t *testing.T) {
	o := NewOrder()
	stored := &Product{ID: 3}
	o.AddProduct(stored)

	o.RemoveProduct(&Product{ID: 3})
	if len(o.Products) != 0 {
		t.Errorf("removing by ID should detach the stored product, got %d left", len(o.Products))
	}
	if stored.HasOrder(o) {
		t.Error("stored product should no longer reference the order")
	}
}

func TestProduct_RemoveProductCategory_MatchesByID(t *testing.T) {
	p := NewProduct()
	stored := &Category{ID: 5}
	p.AddProductCategory(stored)

	p.RemoveProductCategory(&Category{ID: 5})
	if len(p.Categories) != 0 {
		t.Errorf("removing by ID should detach the stored category, got %d left", len(p.Categories))
	}
	if stored.HasProduct(p) {
		t.Error("stored category should no longer reference the product")
	}
}

func TestCategory_RemoveProduct_MatchesByID(t *testing.T) {
	c := NewCategory()
	stored := &Product{ID: 9}
	c.AddProduct(stored)

	c.RemoveProduct(&Product{ID: 9})
	if len(c.Products) != 0 {
		t.Errorf("removing by ID should detach the stored product, got %d left", len(c.Products))
	}
	if stored.HasCategory(c) {
		t.Error("stored product should no longer reference the category")
	}
}

func TestProduct_AddProductCategory_Idempotent(t *testing.T) {
	p := NewProduct()
	c := NewCategory()

	p.AddProductCategory(c)
	p.AddProductCategory(c)

	if len(p.Categories) != 1 {
		t.Fatalf("expected exactly one category, got %d", len(p.Categories))
	}
	if !c.HasProduct(p) {
		t.Error("category should see the product")
	}

	p.RemoveProductCategory(c)
	p.RemoveProductCategory(c)
	if len(p.Categories) != 0 || len(c.Products) != 0 {
		t.Errorf("expected both sides empty, got product=%d category=%d", len(p.Categories), len(c.Products))
	}
}

func TestProduct_NilRelations(t *testing.T) {
	p := NewProduct()
	p.AddOrder(nil)
	p.RemoveOrder(nil)
	p.AddProductCategory(nil)
	p.RemoveProductCategory(nil)
	if len(p.Orders) != 0 || len(p.Categories) != 0 {
		t.Error("nil relations must be ignored")
	}
}

func TestProduct_SetType(t *testing.T) {
	p := NewProduct()
	pt := &ProductType{ID: 3}

	p.SetType(pt)
	if p.TypeID == nil || *p.TypeID != 3 {
		t.Fatalf("TypeID = %v, want 3", p.TypeID)
	}

	p.SetType(nil)
	if p.TypeID != nil || p.Type != nil {
		t.Error("SetType(nil) should clear both the reference and the id")
	}
	if pt.ID != 3 {
		t.Error("clearing the link must not touch the type")
	}
}

func TestProduct_ValidateForCreate(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    validation.Violations
	}{
		{"valid", Product{Name: ptr("Chair"), Libelle: ptr("Oak chair")}, nil},
		{"missing both", Product{}, validation.Violations{"name": validation.RuleRequired, "libelle": validation.RuleRequired}},
		{"blank name", Product{Name: ptr("  "), Libelle: ptr("x")}, validation.Violations{"name": validation.RuleRequired}},
		{"short name", Product{Name: ptr("A"), Libelle: ptr("x")}, validation.Violations{"name": validation.RuleTooShort}},
		{"long name", Product{Name: ptr("012345678901234567890123456789012345678901234567890"), Libelle: ptr("x")}, validation.Violations{"name": validation.RuleTooLong}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.ValidateForCreate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *validation.Error, got %v", err)
			}
			if len(verr.Violations) != len(tt.want) {
				t.Fatalf("violations = %v, want %v", verr.Violations, tt.want)
			}
			for field, rule := range tt.want {
				if verr.Violations[field] != rule {
					t.Errorf("%s = %q, want %q", field, verr.Violations[field], rule)
				}
			}
		})
	}
}

func TestOrder_GetUserID(t *testing.T) {
	o := NewOrder()
	o.SetUser(&User{ID: 456})
	if got := o.GetUserID(); got != 456 {
		t.Errorf("GetUserID() = %d, want 456", got)
	}
	o.SetUser(nil)
	if got := o.GetUserID(); got != 0 {
		t.Errorf("GetUserID() after clear = %d, want 0", got)
	}
}

func TestUser_Roles(t *testing.T) {
	u := NewUser("a@b.c")
	if !u.HasRole(RoleUser) {
		t.Error("every user has ROLE_USER")
	}
	if u.IsAdmin() {
		t.Error("new user should not be admin")
	}

	u.Roles = []string{RoleAdmin, RoleUser}
	if !u.IsAdmin() {
		t.Error("expected admin")
	}
	if got := u.GetRoles(); len(got) != 2 {
		t.Errorf("GetRoles() = %v, want 2 distinct roles", got)
	}
}
