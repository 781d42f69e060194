package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/shop-api/internal/auth"
	"github.com/diewo77/shop-api/internal/db"
	"github.com/diewo77/shop-api/internal/media"
	"github.com/diewo77/shop-api/internal/policy"
	"github.com/diewo77/shop-api/internal/testdb"
)

type client struct {
	t   *testing.T
	app http.Handler
}

func newClient(t *testing.T) (*client, *policy.RouterConfig) {
	t.Helper()
	dbi := testdb.OpenMigrated(t)
	if _, err := db.EnsureAdmin(dbi, "admin@example.com", "admin-password"); err != nil {
		t.Fatalf("admin: %v", err)
	}
	cfg := policy.NewRouterConfig(dbi, auth.NewSessions("test-secret"), media.StaticResolver{BaseURL: "/media"})
	return &client{t: t, app: NewApp(cfg)}, cfg
}

// do sends body as JSON with an optional bearer token and decodes the reply into out.
func (c *client) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	c.app.ServeHTTP(rr, req)
	if out != nil && rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code
}

func (c *client) login(email, password string) string {
	c.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	if code := c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &out); code != http.StatusOK {
		c.t.Fatalf("login %s: status %d", email, code)
	}
	return out.Token
}

func (c *client) signup(email string) (string, uint) {
	c.t.Helper()
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	body := map[string]string{"email": email, "password": "long-enough"}
	if code := c.do(http.MethodPost, "/auth/signup", "", body, &out); code != http.StatusCreated {
		c.t.Fatalf("signup %s: status %d", email, code)
	}
	return out.Token, out.User.ID
}

type productResp struct {
	ID         uint   `json:"id"`
	Price      *int   `json:"price"`
	PriceTVA   *int   `json:"price_tva"`
	TypeID     *uint  `json:"type_id"`
	ContentURL string `json:"content_url"`
	OrderIDs   []uint `json:"order_ids"`
	Categories []struct {
		ID uint `json:"id"`
	} `json:"categories"`
}

func TestAuthFlowE2E(t *testing.T) {
	c, _ := newClient(t)

	if code := c.do(http.MethodGet, "/auth/me", "", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous /auth/me = %d, want 401", code)
	}
	token, _ := c.signup("Alice@Example.com ")

	var me struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	if code := c.do(http.MethodGet, "/auth/me", token, nil, &me); code != http.StatusOK {
		t.Fatalf("/auth/me = %d", code)
	}
	if me.Email != "alice@example.com" || len(me.Roles) != 1 || me.Roles[0] != "ROLE_USER" {
		t.Errorf("me = %+v", me)
	}

	body := map[string]string{"email": "alice@example.com", "password": "long-enough"}
	if code := c.do(http.MethodPost, "/auth/signup", "", body, nil); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", code)
	}
	if code := c.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "b@example.com", "password": "short"}, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("short password = %d, want 422", code)
	}
	if code := c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong"}, nil); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", code)
	}
}

func TestProductsE2E(t *testing.T) {
	c, _ := newClient(t)
	alice, _ := c.signup("alice@example.com")
	bob, _ := c.signup("bob@example.com")
	admin := c.login("admin@example.com", "admin-password")

	var p productResp
	code := c.do(http.MethodPost, "/products", alice, map[string]any{
		"name": "Chair", "libelle": "Wooden chair", "price": 100, "file_path": "chairs/1.png",
	}, &p)
	if code != http.StatusCreated {
		t.Fatalf("create product = %d", code)
	}
	if *p.PriceTVA != 20 || p.ContentURL != "/media/chairs/1.png" {
		t.Errorf("product = %+v", p)
	}

	if code := c.do(http.MethodPost, "/products", alice, map[string]any{"name": "x", "libelle": "y"}, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("short name = %d, want 422", code)
	}
	if code := c.do(http.MethodPost, "/products", alice, map[string]any{"name": "Lamp", "libelle": "Lamp", "type_id": 999}, nil); code != http.StatusConflict {
		t.Errorf("dangling type = %d, want 409", code)
	}
	if code := c.do(http.MethodPost, "/products", alice, map[string]any{"nom": "Lamp"}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", code)
	}

	path := fmt.Sprintf("/products/%d", p.ID)
	if code := c.do(http.MethodPut, path, bob, map[string]any{"name": "Stolen", "libelle": "Stolen"}, nil); code != http.StatusForbidden {
		t.Errorf("foreign update = %d, want 403", code)
	}
	if code := c.do(http.MethodGet, path, bob, nil, nil); code != http.StatusOK {
		t.Errorf("foreign view = %d, want 200", code)
	}

	var cat struct {
		ID uint `json:"id"`
	}
	if code := c.do(http.MethodPost, "/categories", alice, map[string]any{"name": "Maison"}, nil); code != http.StatusForbidden {
		t.Errorf("user creates category = %d, want 403", code)
	}
	if code := c.do(http.MethodPost, "/categories", admin, map[string]any{"name": "Maison"}, &cat); code != http.StatusCreated {
		t.Fatalf("admin creates category = %d", code)
	}
	for range 2 {
		if code := c.do(http.MethodPost, fmt.Sprintf("%s/categories/%d", path, cat.ID), alice, nil, &p); code != http.StatusOK {
			t.Fatalf("add category = %d", code)
		}
	}
	if len(p.Categories) != 1 {
		t.Errorf("categories = %+v", p.Categories)
	}

	var typ struct {
		ID uint `json:"id"`
	}
	if code := c.do(http.MethodPost, "/product-types", admin, map[string]any{"name": "Physique"}, &typ); code != http.StatusCreated {
		t.Fatalf("create type = %d", code)
	}
	if code := c.do(http.MethodPut, path+"/type", alice, map[string]any{"type_id": typ.ID}, &p); code != http.StatusOK || p.TypeID == nil {
		t.Fatalf("set type = %d, %+v", code, p)
	}
	if code := c.do(http.MethodPut, path+"/type", alice, map[string]any{"type_id": nil}, &p); code != http.StatusOK || p.TypeID != nil {
		t.Fatalf("clear type = %d, %+v", code, p)
	}

	if code := c.do(http.MethodDelete, path, bob, nil, nil); code != http.StatusForbidden {
		t.Errorf("foreign delete = %d, want 403", code)
	}
	if code := c.do(http.MethodDelete, path, admin, nil, nil); code != http.StatusNoContent {
		t.Errorf("admin delete = %d, want 204", code)
	}
	if code := c.do(http.MethodGet, path, alice, nil, nil); code != http.StatusNotFound {
		t.Errorf("deleted product = %d, want 404", code)
	}
}

func TestOrdersE2E(t *testing.T) {
	c, _ := newClient(t)
	alice, aliceID := c.signup("alice@example.com")
	admin := c.login("admin@example.com", "admin-password")

	var p productResp
	if code := c.do(http.MethodPost, "/products", alice, map[string]any{"name": "Chair", "libelle": "Chair", "price": 250}, &p); code != http.StatusCreated {
		t.Fatalf("create product = %d", code)
	}

	orderBody := map[string]any{"name": "First", "libelle": "First order", "product_ids": []uint{p.ID}}
	if code := c.do(http.MethodPost, "/orders", alice, orderBody, nil); code != http.StatusForbidden {
		t.Errorf("user creates order = %d, want 403", code)
	}

	var o struct {
		ID       uint `json:"id"`
		Products []struct {
			ID uint `json:"id"`
		} `json:"products"`
		Totals struct {
			Price int `json:"price"`
			TVA   int `json:"price_tva"`
			Total int `json:"total"`
		} `json:"totals"`
	}
	if code := c.do(http.MethodPost, "/orders", admin, orderBody, &o); code != http.StatusCreated {
		t.Fatalf("admin creates order = %d", code)
	}
	if len(o.Products) != 1 || o.Totals.Price != 250 || o.Totals.TVA != 50 || o.Totals.Total != 300 {
		t.Errorf("order = %+v", o)
	}

	path := fmt.Sprintf("/orders/%d", o.ID)
	if code := c.do(http.MethodGet, path, admin, nil, nil); code != http.StatusOK {
		t.Errorf("admin views own order = %d", code)
	}
	if code := c.do(http.MethodGet, path, alice, nil, nil); code != http.StatusForbidden {
		t.Errorf("user views admin order = %d, want 403", code)
	}
	if code := c.do(http.MethodPut, path, alice, map[string]any{"name": "Mine", "libelle": "Mine", "user_id": aliceID}, nil); code != http.StatusForbidden {
		t.Errorf("user takes order = %d, want 403", code)
	}

	if code := c.do(http.MethodGet, fmt.Sprintf("/products/%d", p.ID), alice, nil, &p); code != http.StatusOK {
		t.Fatalf("view product = %d", code)
	}
	if len(p.OrderIDs) != 1 || p.OrderIDs[0] != o.ID {
		t.Errorf("order_ids = %v", p.OrderIDs)
	}

	var spend struct {
		Total int `json:"total"`
	}
	if code := c.do(http.MethodGet, "/orders/spend", admin, nil, &spend); code != http.StatusOK || spend.Total != 300 {
		t.Errorf("admin spend = %d, %+v", code, spend)
	}
	spend.Total = -1
	if code := c.do(http.MethodGet, "/orders/spend", alice, nil, &spend); code != http.StatusOK || spend.Total != 0 {
		t.Errorf("user spend = %d, %+v", code, spend)
	}

	if code := c.do(http.MethodDelete, fmt.Sprintf("%s/products/%d", path, p.ID), admin, nil, &o); code != http.StatusOK {
		t.Fatalf("detach = %d", code)
	}
	if len(o.Products) != 0 || o.Totals.Total != 0 {
		t.Errorf("after detach: %+v", o)
	}
	if code := c.do(http.MethodPost, fmt.Sprintf("%s/products/%d", path, 999), admin, nil, nil); code != http.StatusNotFound {
		t.Errorf("attach missing product = %d, want 404", code)
	}

	var list []json.RawMessage
	if code := c.do(http.MethodGet, "/orders", alice, nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Errorf("list orders = %d, %d items", code, len(list))
	}
	if code := c.do(http.MethodDelete, path, alice, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete order = %d, want 204", code)
	}
}

func TestAdminRolesE2E(t *testing.T) {
	c, _ := newClient(t)
	alice, aliceID := c.signup("alice@example.com")
	admin := c.login("admin@example.com", "admin-password")

	if code := c.do(http.MethodGet, "/admin/users", alice, nil, nil); code != http.StatusForbidden {
		t.Errorf("user lists users = %d, want 403", code)
	}
	var users []json.RawMessage
	if code := c.do(http.MethodGet, "/admin/users", admin, nil, &users); code != http.StatusOK || len(users) != 2 {
		t.Errorf("admin lists users = %d, %d users", code, len(users))
	}

	rolesPath := fmt.Sprintf("/admin/users/%d/roles", aliceID)
	if code := c.do(http.MethodPut, rolesPath, admin, map[string]any{"roles": []string{"ROLE_GOD"}}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown role = %d, want 400", code)
	}
	// Warm the profile cache before the change.
	if code := c.do(http.MethodPost, "/categories", alice, map[string]any{"name": "Loisirs"}, nil); code != http.StatusForbidden {
		t.Fatalf("user creates category = %d, want 403", code)
	}
	if code := c.do(http.MethodPut, rolesPath, admin, map[string]any{"roles": []string{"ROLE_ADMIN"}}, nil); code != http.StatusOK {
		t.Fatalf("assign roles = %d", code)
	}
	if code := c.do(http.MethodPost, "/categories", alice, map[string]any{"name": "Loisirs"}, nil); code != http.StatusCreated {
		t.Errorf("promoted user creates category = %d, want 201", code)
	}
}
