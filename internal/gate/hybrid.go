package gate

import "context"

// HybridGate combines profile-based global permissions with resource-specific policies.
// Authorization flow:
//  1. Check if user is valid (non-zero)
//  2. Check if user's profile has the required permission (resource:action)
//  3. If a resource policy exists, run it. Policies registered with
//     RegisterStrict also run for nil resources (create, list).
type HybridGate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]registered[U]
}

type registered[U comparable] struct {
	policy Policy[U]
	strict bool
}

// NewHybridGate creates a hybrid gate with the given profile resolver.
func NewHybridGate[U comparable](resolver ProfileResolver[U]) *HybridGate[U] {
	return &HybridGate[U]{
		resolver: resolver,
		policies: make(map[string]registered[U]),
	}
}

// Register adds a resource policy consulted when a resource is provided.
func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = registered[U]{policy: p}
}

// RegisterStrict adds a resource policy consulted on every check, including
// create and list where resource is nil.
func (g *HybridGate[U]) RegisterStrict(resourceType string, p Policy[U]) {
	g.policies[resourceType] = registered[U]{policy: p, strict: true}
}

func (g *HybridGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	if !g.CanProfile(ctx, user, action, resourceType) {
		return ErrUnauthorized
	}
	reg, ok := g.policies[resourceType]
	if !ok || (resource == nil && !reg.strict) {
		return nil
	}
	if !reg.policy.Can(ctx, user, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *HybridGate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, without ownership check.
func (g *HybridGate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}
