package gate

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Profile represents a role with a set of permissions.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a user to their profile.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return f(ctx, user)
}

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name        string
	permissions []Permission
}

// NewStaticProfile creates a profile with the given permissions, deduplicated.
func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{name: name}
	p.Grant(permissions...)
	return p
}

// Merge returns a profile holding the permissions of every given profile.
func Merge(name string, profiles ...Profile) *StaticProfile {
	p := &StaticProfile{name: name}
	for _, other := range profiles {
		if other != nil {
			p.Grant(other.Permissions()...)
		}
	}
	return p
}

// Grant adds permissions not already present.
func (p *StaticProfile) Grant(permissions ...Permission) {
	for _, perm := range permissions {
		if !slices.Contains(p.permissions, perm) {
			p.permissions = append(p.permissions, perm)
		}
	}
}

func (p *StaticProfile) Name() string { return p.name }

// Permissions returns the permissions in grant order.
func (p *StaticProfile) Permissions() []Permission {
	return slices.Clone(p.permissions)
}

// HasPermission checks if the profile has the requested permission.
// Supports wildcard matching.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	return slices.ContainsFunc(p.permissions, func(perm Permission) bool {
		return perm.Matches(requested)
	})
}

// CachedResolver wraps a ProfileResolver with TTL-based caching.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	cache map[U]cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	profile   Profile
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching.
// ttl is how long profiles are cached before re-fetching.
func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner: inner,
		cache: make(map[U]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Resolve returns the profile for the given user, using cache if available.
// Errors are not cached.
func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	r.mu.RLock()
	entry, ok := r.cache[user]
	r.mu.RUnlock()

	if ok && r.now().Before(entry.expiresAt) {
		return entry.profile, nil
	}

	profile, err := r.inner.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[user] = cacheEntry{profile: profile, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return profile, nil
}

// Invalidate removes a user from the cache.
// Call this when a user's roles change.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	delete(r.cache, user)
	r.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	clear(r.cache)
	r.mu.Unlock()
}
