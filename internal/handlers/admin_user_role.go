package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/services"
)

// AdminUserRoleHandler lets admins list users and change their roles.
type AdminUserRoleHandler struct {
	DB            *gorm.DB
	CacheResolver *gate.CachedResolver[uint] // To invalidate cache on changes
}

func NewAdminUserRoleHandler(db *gorm.DB, cacheResolver *gate.CachedResolver[uint]) *AdminUserRoleHandler {
	return &AdminUserRoleHandler{DB: db, CacheResolver: cacheResolver}
}

// assignableRoles are the roles an admin may store on a user.
var assignableRoles = []string{models.RoleUser, models.RoleAdmin}

// List returns every user with their effective roles.
func (h *AdminUserRoleHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []*models.User
	if err := h.DB.WithContext(r.Context()).Order("id").Find(&users).Error; err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// AssignRoles handles PUT /admin/users/{id}/roles with {"roles": [...]}.
// The stored roles are replaced; ROLE_USER stays implied.
func (h *AdminUserRoleHandler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Roles []string `json:"roles"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	for _, role := range in.Roles {
		if !slices.Contains(assignableRoles, role) {
			writeError(w, r, fmt.Errorf("%w: unknown role %q", httpx.ErrBadRequest, role))
			return
		}
	}

	var user models.User
	if err := h.DB.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("user %d: %w", userID, services.ErrNotFound)
		}
		writeError(w, r, err)
		return
	}
	user.Roles = slices.Compact(slices.Sorted(slices.Values(in.Roles)))
	if user.Roles == nil {
		user.Roles = []string{}
	}
	if err := h.DB.WithContext(r.Context()).Save(&user).Error; err != nil {
		writeError(w, r, err)
		return
	}

	// Invalidate cache for this specific user
	if h.CacheResolver != nil {
		h.CacheResolver.Invalidate(user.ID)
	}
	httpx.JSON(w, http.StatusOK, newUserView(&user))
}
