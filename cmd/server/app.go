package main

import (
	"net/http"

	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	handler   http.Handler
	routerCfg *policy.RouterConfig
}

// NewApp creates a new application with all routes configured.
func NewApp(routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	app.handler = routerCfg.Sessions.Middleware(app.mux)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("POST /auth/signup", ah.Signup)
	a.mux.HandleFunc("POST /auth/login", ah.Login)
	a.mux.HandleFunc("POST /auth/logout", ah.Logout)
	a.mux.Handle("GET /auth/me", a.requireAuth(http.HandlerFunc(ah.Me)))

	// ─────────────────────────────────────────────────────────────────────────
	// Protected resource routes (require auth + specific permissions)
	// ─────────────────────────────────────────────────────────────────────────
	ph := a.routerCfg.ProductHandler
	a.handle("GET /products", models.ResourceProduct, gate.ActionList, ph.List)
	a.handle("POST /products", models.ResourceProduct, gate.ActionCreate, ph.Create)
	a.handle("GET /products/{id}", models.ResourceProduct, gate.ActionView, ph.View)
	a.handle("PUT /products/{id}", models.ResourceProduct, gate.ActionUpdate, ph.Update)
	a.handle("DELETE /products/{id}", models.ResourceProduct, gate.ActionDelete, ph.Delete)
	a.handle("PUT /products/{id}/type", models.ResourceProduct, gate.ActionUpdate, ph.SetType)
	a.handle("POST /products/{id}/categories/{categoryID}", models.ResourceProduct, gate.ActionUpdate, ph.AddCategory)
	a.handle("DELETE /products/{id}/categories/{categoryID}", models.ResourceProduct, gate.ActionUpdate, ph.RemoveCategory)

	oh := a.routerCfg.OrderHandler
	a.handle("GET /orders", models.ResourceOrder, gate.ActionList, oh.List)
	a.handle("POST /orders", models.ResourceOrder, gate.ActionCreate, oh.Create)
	a.handle("GET /orders/spend", models.ResourceOrder, gate.ActionList, oh.Spend)
	a.handle("GET /orders/{id}", models.ResourceOrder, gate.ActionView, oh.View)
	a.handle("PUT /orders/{id}", models.ResourceOrder, gate.ActionUpdate, oh.Update)
	a.handle("DELETE /orders/{id}", models.ResourceOrder, gate.ActionDelete, oh.Delete)
	a.handle("POST /orders/{id}/products/{productID}", models.ResourceOrder, gate.ActionUpdate, oh.AttachProduct)
	a.handle("DELETE /orders/{id}/products/{productID}", models.ResourceOrder, gate.ActionUpdate, oh.DetachProduct)

	ch := a.routerCfg.CategoryHandler
	a.handle("GET /categories", models.ResourceCategory, gate.ActionList, ch.List)
	a.handle("POST /categories", models.ResourceCategory, gate.ActionCreate, ch.Create)
	a.handle("GET /categories/{id}", models.ResourceCategory, gate.ActionView, ch.View)
	a.handle("PUT /categories/{id}", models.ResourceCategory, gate.ActionUpdate, ch.Update)
	a.handle("DELETE /categories/{id}", models.ResourceCategory, gate.ActionDelete, ch.Delete)

	th := a.routerCfg.ProductTypeHandler
	a.handle("GET /product-types", models.ResourceProductType, gate.ActionList, th.List)
	a.handle("POST /product-types", models.ResourceProductType, gate.ActionCreate, th.Create)
	a.handle("GET /product-types/{id}", models.ResourceProductType, gate.ActionView, th.View)
	a.handle("PUT /product-types/{id}", models.ResourceProductType, gate.ActionUpdate, th.Update)
	a.handle("DELETE /product-types/{id}", models.ResourceProductType, gate.ActionDelete, th.Delete)

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes
	// ─────────────────────────────────────────────────────────────────────────
	uh := a.routerCfg.AdminUserRoleHandler
	a.mux.Handle("GET /admin/users", a.requireAdmin(http.HandlerFunc(uh.List)))
	a.mux.Handle("PUT /admin/users/{id}/roles", a.requireAdmin(http.HandlerFunc(uh.AssignRoles)))
}

// handle mounts h behind authentication and the resource:action permission.
func (a *App) handle(pattern, resourceType string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.requireAuth(a.requirePermission(resourceType, action)(h)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth wraps a handler to require authentication.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return a.routerCfg.Sessions.RequireAuth(next)
}

// requireAdmin wraps a handler to require admin permissions.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequireAdmin()(next))
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}
