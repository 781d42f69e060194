// Package gate is the authorization checkpoint of the API. A HybridGate first
// checks that the caller's profile grants "resource:action", then runs the
// resource policy (ownership and similar rules) when a resource is at hand.
//
// The package is generic over the subject type and knows nothing about the
// shop models; package policy wires it to users, products and orders.
package gate

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthorized is returned by Authorize when access is denied.
var ErrUnauthorized = errors.New("unauthorized")

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Authorizer is what handlers depend on.
type Authorizer[U comparable] interface {
	Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error
	Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool
}

// Policy defines authorization rules for a resource type.
// For list/create, resource may be nil (context-only check).
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}

// AnyOf allows when at least one policy allows.
func AnyOf[U any](policies ...Policy[U]) Policy[U] {
	return PolicyFunc[U](func(ctx context.Context, user U, action Action, resource any) bool {
		for _, p := range policies {
			if p.Can(ctx, user, action, resource) {
				return true
			}
		}
		return false
	})
}

// AllOf allows only when every policy allows.
func AllOf[U any](policies ...Policy[U]) Policy[U] {
	return PolicyFunc[U](func(ctx context.Context, user U, action Action, resource any) bool {
		for _, p := range policies {
			if !p.Can(ctx, user, action, resource) {
				return false
			}
		}
		return len(policies) > 0
	})
}

// Permission represents an allowed action on a resource type.
// Format: "resource:action" (e.g., "product:create", "order:view")
type Permission string

// Wildcards for super permissions
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches checks if this permission matches a requested permission.
// "*:*" matches all, "product:*" matches all product actions.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
