package policy

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/auth"
	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/models"
)

// AuthGate is the shop's HybridGate: role profiles resolved from the users
// table and cached, plus the product and order policies.
type AuthGate struct {
	*gate.HybridGate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates the gate with profiles cached for ttl.
func NewAuthGate(db *gorm.DB, ttl time.Duration) *AuthGate {
	cache := gate.NewCachedResolver[uint](NewRoleResolver(db), ttl)
	g := &AuthGate{
		HybridGate:    gate.NewHybridGate[uint](cache),
		CacheResolver: cache,
	}

	g.Register(models.ResourceProduct, NewAdminBypassPolicy(NewOwnershipPolicy(gate.ActionUpdate, gate.ActionDelete), g.IsAdmin))
	g.RegisterStrict(models.ResourceOrder, NewOrderPolicy(g.IsAdmin))
	return g
}

// IsAdmin reports whether uid's profile grants every permission.
func (g *AuthGate) IsAdmin(ctx context.Context, uid uint) bool {
	p, err := g.CacheResolver.Resolve(ctx, uid)
	return err == nil && p != nil && p.HasPermission(gate.PermissionSuperAdmin)
}

// InvalidateUser drops the cached profile of a user whose roles changed.
func (g *AuthGate) InvalidateUser(uid uint) {
	g.CacheResolver.Invalidate(uid)
}

// RequirePermission answers 401 without a session and 403 unless the
// caller's profile grants resourceType:action.
func (g *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !g.CanProfile(r.Context(), uid, action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only lets admins through.
func (g *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return g.RequirePermission(gate.WildcardAll, gate.Action(gate.WildcardAll))
}
