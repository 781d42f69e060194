package gate

import (
	"context"
	"errors"
	"testing"
	"time"
)

type ownedResource struct {
	OwnerID uint
}

var ownerPolicy = PolicyFunc[uint](func(_ context.Context, userID uint, _ Action, resource any) bool {
	r, ok := resource.(*ownedResource)
	return ok && r.OwnerID == userID
})

// mapResolver resolves users from a fixed map and counts lookups.
type mapResolver struct {
	profiles map[uint]Profile
	calls    int
}

func (r *mapResolver) Resolve(_ context.Context, user uint) (Profile, error) {
	r.calls++
	return r.profiles[user], nil
}

func TestPermission_Parse(t *testing.T) {
	res, act := Permission("order:view").Parse()
	if res != "order" || act != ActionView {
		t.Errorf("Parse() = %q, %q", res, act)
	}
	res, act = Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got %q and %q", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		held, requested Permission
		want            bool
	}{
		{"product:create", "product:create", true},
		{"product:create", "product:delete", false},
		{"product:create", "order:create", false},
		{PermissionSuperAdmin, "order:delete", true},
		{"product:*", "product:update", true},
		{"product:*", "product_type:update", false},
		{"invalid", "invalid:*", false},
	}
	for _, tt := range tests {
		if got := tt.held.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.held, tt.requested, got, tt.want)
		}
	}
}

func TestStaticProfile_GrantAndMerge(t *testing.T) {
	user := NewStaticProfile("ROLE_USER", "product:*", "order:view", "order:view")
	if len(user.Permissions()) != 2 {
		t.Errorf("duplicates should be dropped, got %v", user.Permissions())
	}

	merged := Merge("user+admin", user, NewStaticProfile("ROLE_ADMIN", PermissionSuperAdmin), nil)
	if !merged.HasPermission("category:delete") {
		t.Error("merged profile should carry the admin wildcard")
	}
	if user.HasPermission("category:delete") {
		t.Error("merging must not change the source profile")
	}
}

func TestHybridGate_ProfileOnly(t *testing.T) {
	resolver := &mapResolver{profiles: map[uint]Profile{
		1: NewStaticProfile("editor", NewPermission("product", ActionCreate), NewPermission("product", ActionView)),
	}}
	g := NewHybridGate[uint](resolver)
	ctx := context.Background()

	if !g.Can(ctx, 1, ActionCreate, "product", nil) {
		t.Error("user with permission should be allowed")
	}
	if g.Can(ctx, 1, ActionDelete, "product", nil) {
		t.Error("user without permission should be denied")
	}
	if g.Can(ctx, 2, ActionView, "product", nil) {
		t.Error("user without profile should be denied")
	}
	if err := g.Authorize(ctx, 0, ActionView, "product", nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("zero user: got %v, want ErrUnauthorized", err)
	}
}

func TestHybridGate_ResourcePolicy(t *testing.T) {
	resolver := &mapResolver{profiles: map[uint]Profile{
		1: NewStaticProfile("editor", "product:*"),
		2: NewStaticProfile("editor", "product:*"),
	}}
	g := NewHybridGate[uint](resolver)
	g.Register("product", ownerPolicy)
	ctx := context.Background()
	owned := &ownedResource{OwnerID: 1}

	if !g.Can(ctx, 1, ActionUpdate, "product", owned) {
		t.Error("owner should be allowed")
	}
	if g.Can(ctx, 2, ActionUpdate, "product", owned) {
		t.Error("non-owner should be denied")
	}
	if !g.Can(ctx, 2, ActionCreate, "product", nil) {
		t.Error("non-strict policy is skipped without a resource")
	}
}

func TestHybridGate_StrictPolicy(t *testing.T) {
	resolver := &mapResolver{profiles: map[uint]Profile{1: NewStaticProfile("user", "order:*")}}
	g := NewHybridGate[uint](resolver)
	g.RegisterStrict("order", PolicyFunc[uint](func(_ context.Context, _ uint, action Action, _ any) bool {
		return action != ActionCreate
	}))
	ctx := context.Background()

	if g.Can(ctx, 1, ActionCreate, "order", nil) {
		t.Error("strict policy must run without a resource")
	}
	if !g.Can(ctx, 1, ActionList, "order", nil) {
		t.Error("list should pass the strict policy")
	}
}

func TestCombinators(t *testing.T) {
	allow := PolicyFunc[uint](func(context.Context, uint, Action, any) bool { return true })
	deny := PolicyFunc[uint](func(context.Context, uint, Action, any) bool { return false })
	ctx := context.Background()

	if !AnyOf[uint](deny, allow).Can(ctx, 1, ActionView, nil) {
		t.Error("AnyOf should allow when one policy allows")
	}
	if AnyOf[uint]().Can(ctx, 1, ActionView, nil) {
		t.Error("empty AnyOf should deny")
	}
	if AllOf[uint](allow, deny).Can(ctx, 1, ActionView, nil) {
		t.Error("AllOf should deny when one policy denies")
	}
	if AllOf[uint]().Can(ctx, 1, ActionView, nil) {
		t.Error("empty AllOf should deny")
	}
}

func TestCachedResolver(t *testing.T) {
	inner := &mapResolver{profiles: map[uint]Profile{1: NewStaticProfile("editor")}}
	cached := NewCachedResolver[uint](inner, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }
	ctx := context.Background()

	p, _ := cached.Resolve(ctx, 1)
	inner.profiles[1] = NewStaticProfile("admin")
	if p2, _ := cached.Resolve(ctx, 1); p2.Name() != p.Name() || inner.calls != 1 {
		t.Fatalf("expected cached profile, got %q after %d calls", p2.Name(), inner.calls)
	}

	now = now.Add(2 * time.Minute)
	if p3, _ := cached.Resolve(ctx, 1); p3.Name() != "admin" {
		t.Errorf("expired entry should be refreshed, got %q", p3.Name())
	}

	inner.profiles[1] = NewStaticProfile("viewer")
	cached.Invalidate(1)
	if p4, _ := cached.Resolve(ctx, 1); p4.Name() != "viewer" {
		t.Errorf("invalidated entry should be refreshed, got %q", p4.Name())
	}

	inner.profiles[1] = NewStaticProfile("guest")
	cached.InvalidateAll()
	if p5, _ := cached.Resolve(ctx, 1); p5.Name() != "guest" {
		t.Errorf("InvalidateAll should drop every entry, got %q", p5.Name())
	}
}
