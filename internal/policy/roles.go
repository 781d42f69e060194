package policy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/models"
)

// ErrUnknownUser is returned when a session points at a deleted user.
var ErrUnknownUser = errors.New("unknown user")

// RoleProfiles maps each role to the permissions it grants.
var RoleProfiles = map[string]*gate.StaticProfile{
	models.RoleAdmin: gate.NewStaticProfile(models.RoleAdmin, gate.PermissionSuperAdmin),
	models.RoleUser: gate.NewStaticProfile(models.RoleUser,
		gate.NewPermission(models.ResourceProduct, gate.WildcardAll),
		gate.NewPermission(models.ResourceOrder, gate.ActionList),
		gate.NewPermission(models.ResourceOrder, gate.ActionView),
		gate.NewPermission(models.ResourceOrder, gate.ActionUpdate),
		gate.NewPermission(models.ResourceOrder, gate.ActionDelete),
		gate.NewPermission(models.ResourceCategory, gate.ActionList),
		gate.NewPermission(models.ResourceCategory, gate.ActionView),
		gate.NewPermission(models.ResourceProductType, gate.ActionList),
		gate.NewPermission(models.ResourceProductType, gate.ActionView),
	),
}

// ProfileFor merges the profiles of roles. Unknown roles grant nothing.
func ProfileFor(roles []string) *gate.StaticProfile {
	roles = slices.Clone(roles)
	slices.Sort(roles)
	profiles := make([]gate.Profile, 0, len(roles))
	for _, r := range roles {
		if p, ok := RoleProfiles[r]; ok {
			profiles = append(profiles, p)
		}
	}
	return gate.Merge(strings.Join(roles, "+"), profiles...)
}

// NewRoleResolver resolves a user id to the profile of the user's stored roles.
func NewRoleResolver(db *gorm.DB) gate.ResolverFunc[uint] {
	return func(ctx context.Context, uid uint) (gate.Profile, error) {
		var u models.User
		if err := db.WithContext(ctx).Select("id", "roles").First(&u, uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("user %d: %w", uid, ErrUnknownUser)
			}
			return nil, err
		}
		return ProfileFor(u.GetRoles()), nil
	}
}
