package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/auth"
	"github.com/diewo77/shop-api/internal/handlers"
	"github.com/diewo77/shop-api/internal/media"
	"github.com/diewo77/shop-api/internal/services"
)

// ProfileCacheTTL is how long resolved role profiles are reused.
const ProfileCacheTTL = 5 * time.Minute

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *AuthGate
	// Sessions rejects tokens of users that no longer exist.
	Sessions *auth.Sessions

	AuthHandler          *handlers.AuthHandler
	AdminUserRoleHandler *handlers.AdminUserRoleHandler

	ProductHandler     *handlers.ProductHandler
	OrderHandler       *handlers.OrderHandler
	CategoryHandler    *handlers.CategoryHandler
	ProductTypeHandler *handlers.ProductTypeHandler

	CatalogService *services.CatalogService
}

// NewRouterConfig wires the authorization gate, policies and handlers.
func NewRouterConfig(db *gorm.DB, sessions *auth.Sessions, resolver media.Resolver) *RouterConfig {
	authGate := NewAuthGate(db, ProfileCacheTTL)
	catalog := services.NewCatalogService(db)
	authHandler := handlers.NewAuthHandler(db, sessions)

	return &RouterConfig{
		AuthGate:             authGate,
		Sessions:             sessions.WithVerifier(authHandler.UserExists),
		AuthHandler:          authHandler,
		AdminUserRoleHandler: handlers.NewAdminUserRoleHandler(db, authGate.CacheResolver),
		ProductHandler:       handlers.NewProductHandler(catalog, authGate, resolver),
		OrderHandler:         handlers.NewOrderHandler(catalog, authGate),
		CategoryHandler:      handlers.NewCategoryHandler(catalog),
		ProductTypeHandler:   handlers.NewProductTypeHandler(catalog),
		CatalogService:       catalog,
	}
}
