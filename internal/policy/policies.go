package policy

import (
	"context"
	"slices"

	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/models"
)

// Ownable is implemented by resources that belong to a user.
type Ownable interface {
	GetUserID() uint
}

// AdminCheck reports whether uid holds the admin role.
type AdminCheck func(ctx context.Context, uid uint) bool

// OwnershipPolicy checks that the user owns the resource for the listed
// actions; with no actions listed it checks every action. Nil resources
// (list, create) pass since profile permissions already control access.
type OwnershipPolicy struct {
	actions []gate.Action
}

func NewOwnershipPolicy(actions ...gate.Action) *OwnershipPolicy {
	return &OwnershipPolicy{actions: actions}
}

func (p *OwnershipPolicy) Can(_ context.Context, uid uint, action gate.Action, resource any) bool {
	if resource == nil || (len(p.actions) > 0 && !slices.Contains(p.actions, action)) {
		return true
	}
	// Resources without an owner are denied.
	r, ok := resource.(Ownable)
	return ok && r.GetUserID() == uid
}

// AdminBypassPolicy wraps another policy and always allows admins.
type AdminBypassPolicy struct {
	inner   gate.Policy[uint]
	isAdmin AdminCheck
}

func NewAdminBypassPolicy(inner gate.Policy[uint], isAdmin AdminCheck) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, uid uint, action gate.Action, resource any) bool {
	return gate.AnyOf[uint](adminOnly(p.isAdmin), p.inner).Can(ctx, uid, action, resource)
}

func adminOnly(isAdmin AdminCheck) gate.PolicyFunc[uint] {
	return func(ctx context.Context, uid uint, _ gate.Action, _ any) bool {
		return isAdmin(ctx, uid)
	}
}

// OrderPolicy holds the order rules:
//   - view: admin and owner
//   - update: admin, or owner of both the stored and the updated order
//   - create: admin
//   - list, delete: no extra rule
type OrderPolicy struct {
	view   gate.Policy[uint]
	update gate.Policy[uint]
	create gate.Policy[uint]
}

func NewOrderPolicy(isAdmin AdminCheck) *OrderPolicy {
	admin := adminOnly(isAdmin)
	return &OrderPolicy{
		view:   gate.AllOf[uint](admin, NewOwnershipPolicy()),
		update: NewAdminBypassPolicy(gate.PolicyFunc[uint](ownsChange), isAdmin),
		create: admin,
	}
}

func ownsChange(_ context.Context, uid uint, _ gate.Action, resource any) bool {
	c, ok := resource.(*models.OrderChange)
	return ok && c.Stored != nil && c.Next != nil &&
		c.Stored.GetUserID() == uid && c.Next.GetUserID() == uid
}

func (p *OrderPolicy) Can(ctx context.Context, uid uint, action gate.Action, resource any) bool {
	switch action {
	case gate.ActionView:
		return resource != nil && p.view.Can(ctx, uid, action, resource)
	case gate.ActionUpdate:
		return p.update.Can(ctx, uid, action, resource)
	case gate.ActionCreate:
		return p.create.Can(ctx, uid, action, resource)
	default:
		return true
	}
}
